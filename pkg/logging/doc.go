// Package logging configures zerolog for transferctl and wires gorm's SQL
// logging into it.
package logging
