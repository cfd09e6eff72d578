package integration

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"slices"

	"github.com/cucumber/godog"

	"github.com/doodlesbykumbi/admin-transfer/pkg/client"
	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
)

// principal is a named key holder taking part in a scenario
type principal struct {
	address identity.Address
	key     ed25519.PrivateKey
	client  *client.Client
}

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc         *TestContext
	instance   *ServerInstance
	principals map[string]*principal
	anonymous  *client.Client

	lastErr error
	status  int
	body    []byte
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{
		tc:         tc,
		principals: make(map[string]*principal),
	}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		if s.instance != nil {
			s.instance.Stop()
		}
		return ctx, err
	})

	// Background steps
	sc.Step(`^a transfer server is running$`, s.aTransferServerIsRunning)
	sc.Step(`^a transfer server is running with unauthenticated proposals allowed$`, s.aTransferServerAllowingUnauthenticatedProposals)
	sc.Step(`^an authority "(\w+)"$`, s.anAuthority)
	sc.Step(`^"(\w+)" registers pool "([^"]*)"$`, s.registersPool)

	// Protocol steps
	sc.Step(`^"(\w+)" proposes transferring pool "([^"]*)" to "(\w+)"$`, s.proposes)
	sc.Step(`^"(\w+)" proposes transferring pool "([^"]*)" from "(\w+)" to "(\w+)"$`, s.proposesFrom)
	sc.Step(`^an anonymous caller proposes transferring pool "([^"]*)" to "(\w+)"$`, s.anonymousProposes)
	sc.Step(`^"(\w+)" accepts the transfer of pool "([^"]*)"$`, s.accepts)
	sc.Step(`^"(\w+)" cancels the transfer of pool "([^"]*)"$`, s.cancels)

	// Direct pool steps
	sc.Step(`^"(\w+)" sets the admin of pool "([^"]*)" to "(\w+)"$`, s.setsAdmin)
	sc.Step(`^"(\w+)" hands pool "([^"]*)" to the transfer service$`, s.handsPoolToService)

	// Outcome steps
	sc.Step(`^the request should succeed$`, s.theRequestShouldSucceed)
	sc.Step(`^the request should fail with "([^"]*)"$`, s.theRequestShouldFailWith)
	sc.Step(`^the admin of pool "([^"]*)" should be "(\w+)"$`, s.theAdminShouldBe)
	sc.Step(`^the admin of pool "([^"]*)" should be the transfer service$`, s.theAdminShouldBeTheService)
	sc.Step(`^pool "([^"]*)" should have no pending transfer$`, s.noPendingTransfer)
	sc.Step(`^pool "([^"]*)" should have a pending transfer to "(\w+)"$`, s.pendingTransferTo)
	sc.Step(`^the pending transfer of pool "([^"]*)" should record "(\w+)" as current admin$`, s.pendingTransferRecords)
	sc.Step(`^the pending transfer of pool "([^"]*)" should record no current admin$`, s.pendingTransferRecordsNoAdmin)
	sc.Step(`^pool "([^"]*)" should be consistent$`, s.poolShouldBeConsistent)
	sc.Step(`^the audit log should contain "([^"]*)"$`, s.theAuditLogShouldContain)

	s.registerJWTSteps(sc)
}

// Background steps

func (s *StepsContext) aTransferServerIsRunning() error {
	return s.startServer(ServerConfig{})
}

func (s *StepsContext) aTransferServerAllowingUnauthenticatedProposals() error {
	return s.startServer(ServerConfig{AllowUnauthenticatedPropose: true})
}

func (s *StepsContext) startServer(cfg ServerConfig) error {
	if err := s.tc.Reset(); err != nil {
		return fmt.Errorf("failed to reset database: %w", err)
	}
	instance, err := StartServer(s.tc, cfg)
	if err != nil {
		return err
	}
	s.instance = instance

	s.anonymous, err = client.New(instance.URL)
	return err
}

func (s *StepsContext) anAuthority(name string) error {
	if s.instance == nil {
		return errors.New("no server is running")
	}
	addr, key, err := identity.GenerateKey()
	if err != nil {
		return err
	}
	c, err := client.New(s.instance.URL, client.WithKey(key))
	if err != nil {
		return err
	}
	s.principals[name] = &principal{address: addr, key: key, client: c}
	return nil
}

func (s *StepsContext) principal(name string) (*principal, error) {
	p, ok := s.principals[name]
	if !ok {
		return nil, fmt.Errorf("unknown authority %q", name)
	}
	return p, nil
}

func (s *StepsContext) registersPool(name, poolAddr string) error {
	p, err := s.principal(name)
	if err != nil {
		return err
	}
	return p.client.RegisterPool(context.Background(), identity.Address(poolAddr))
}

// Protocol steps

func (s *StepsContext) proposes(name, poolAddr, newAdmin string) error {
	return s.proposesFrom(name, poolAddr, name, newAdmin)
}

func (s *StepsContext) proposesFrom(name, poolAddr, current, newAdmin string) error {
	caller, err := s.principal(name)
	if err != nil {
		return err
	}
	from, err := s.principal(current)
	if err != nil {
		return err
	}
	to, err := s.principal(newAdmin)
	if err != nil {
		return err
	}
	_, err = caller.client.Propose(context.Background(), identity.Address(poolAddr), from.address, to.address)
	s.record(err)
	return nil
}

func (s *StepsContext) anonymousProposes(poolAddr, newAdmin string) error {
	to, err := s.principal(newAdmin)
	if err != nil {
		return err
	}
	_, err = s.anonymous.ProposeUnauthenticated(context.Background(), identity.Address(poolAddr), to.address)
	s.record(err)
	return nil
}

func (s *StepsContext) accepts(name, poolAddr string) error {
	p, err := s.principal(name)
	if err != nil {
		return err
	}
	s.record(p.client.Accept(context.Background(), identity.Address(poolAddr)))
	return nil
}

func (s *StepsContext) cancels(name, poolAddr string) error {
	p, err := s.principal(name)
	if err != nil {
		return err
	}
	s.record(p.client.Cancel(context.Background(), identity.Address(poolAddr)))
	return nil
}

// Direct pool steps

func (s *StepsContext) setsAdmin(name, poolAddr, admin string) error {
	p, err := s.principal(name)
	if err != nil {
		return err
	}
	to, err := s.principal(admin)
	if err != nil {
		return err
	}
	s.record(p.client.SetAdmin(context.Background(), identity.Address(poolAddr), to.address))
	return nil
}

func (s *StepsContext) handsPoolToService(name, poolAddr string) error {
	p, err := s.principal(name)
	if err != nil {
		return err
	}
	return p.client.SetAdmin(context.Background(), identity.Address(poolAddr), protocolAddress)
}

// record keeps the outcome of a client call for the outcome steps.
func (s *StepsContext) record(err error) {
	s.lastErr = err
	s.status = 0
	s.body = nil

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		s.status = apiErr.Status
		s.body = []byte(apiErr.Message)
	}
}

// Outcome steps

func (s *StepsContext) theRequestShouldSucceed() error {
	if s.lastErr != nil {
		return fmt.Errorf("expected success, got: %w", s.lastErr)
	}
	return nil
}

func (s *StepsContext) theRequestShouldFailWith(code string) error {
	if s.lastErr == nil {
		return fmt.Errorf("expected %s, but the request succeeded", code)
	}
	var apiErr *client.APIError
	if !errors.As(s.lastErr, &apiErr) {
		return fmt.Errorf("expected %s, got transport error: %w", code, s.lastErr)
	}
	if apiErr.Code != code {
		return fmt.Errorf("expected %s, got %s (%d): %s", code, apiErr.Code, apiErr.Status, apiErr.Message)
	}
	return nil
}

func (s *StepsContext) theAdminShouldBe(poolAddr, name string) error {
	p, err := s.principal(name)
	if err != nil {
		return err
	}
	return s.expectAdmin(poolAddr, p.address)
}

func (s *StepsContext) theAdminShouldBeTheService(poolAddr string) error {
	return s.expectAdmin(poolAddr, protocolAddress)
}

func (s *StepsContext) expectAdmin(poolAddr string, want identity.Address) error {
	custody, err := s.anonymous.Custody(context.Background(), identity.Address(poolAddr))
	if err != nil {
		return err
	}
	if custody.Admin != want {
		return fmt.Errorf("expected admin %s, got %s", want, custody.Admin)
	}
	return nil
}

func (s *StepsContext) noPendingTransfer(poolAddr string) error {
	rec, err := s.anonymous.Get(context.Background(), identity.Address(poolAddr))
	if err != nil {
		return err
	}
	if rec != nil {
		return fmt.Errorf("expected no pending transfer, found one to %s", rec.NewAdmin)
	}
	return nil
}

func (s *StepsContext) pendingTransferTo(poolAddr, name string) error {
	p, err := s.principal(name)
	if err != nil {
		return err
	}
	rec, err := s.anonymous.Get(context.Background(), identity.Address(poolAddr))
	if err != nil {
		return err
	}
	if rec == nil {
		return errors.New("expected a pending transfer, found none")
	}
	if rec.NewAdmin != p.address {
		return fmt.Errorf("expected new admin %s, got %s", p.address, rec.NewAdmin)
	}
	return nil
}

func (s *StepsContext) pendingTransferRecords(poolAddr, name string) error {
	p, err := s.principal(name)
	if err != nil {
		return err
	}
	return s.expectCurrentAdmin(poolAddr, p.address)
}

func (s *StepsContext) pendingTransferRecordsNoAdmin(poolAddr string) error {
	return s.expectCurrentAdmin(poolAddr, "")
}

func (s *StepsContext) expectCurrentAdmin(poolAddr string, want identity.Address) error {
	rec, err := s.anonymous.Get(context.Background(), identity.Address(poolAddr))
	if err != nil {
		return err
	}
	if rec == nil {
		return errors.New("expected a pending transfer, found none")
	}
	if rec.CurrentAdmin != want {
		return fmt.Errorf("expected current admin %q, got %q", want, rec.CurrentAdmin)
	}
	return nil
}

func (s *StepsContext) poolShouldBeConsistent(poolAddr string) error {
	custody, err := s.anonymous.Custody(context.Background(), identity.Address(poolAddr))
	if err != nil {
		return err
	}
	if !custody.Consistent(protocolAddress) {
		return fmt.Errorf("pool %s is inconsistent: state %s, admin %s", poolAddr, custody.State, custody.Admin)
	}
	return nil
}

func (s *StepsContext) theAuditLogShouldContain(msgid string) error {
	if s.tc.AuditStore != nil {
		msgs, err := s.tc.AuditStore.Recent(100)
		if err != nil {
			return err
		}
		for _, m := range msgs {
			if m.Msgid == msgid {
				return nil
			}
		}
		return fmt.Errorf("audit table has no %q message", msgid)
	}

	ids := s.instance.AuditIDs()
	if !slices.Contains(ids, msgid) {
		return fmt.Errorf("audit log has no %q event, got %v", msgid, ids)
	}
	return nil
}
