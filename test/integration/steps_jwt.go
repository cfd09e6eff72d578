package integration

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
)

func (s *StepsContext) registerJWTSteps(sc *godog.ScenarioContext) {
	sc.Step(`^"(\w+)" calls "(GET|POST|PUT)" "([^"]*)" with a token issued (\d+) minutes ago$`, s.callsWithTokenIssuedAgo)
	sc.Step(`^"(\w+)" calls "(GET|POST|PUT)" "([^"]*)" with a token valid for (\d+) hours$`, s.callsWithLongLivedToken)
	sc.Step(`^"(\w+)" calls "(GET|POST|PUT)" "([^"]*)" with a valid token$`, s.callsWithValidToken)
	sc.Step(`^an anonymous caller calls "(GET|POST|PUT)" "([^"]*)"$`, s.anonymousCalls)
	sc.Step(`^an anonymous caller calls "(GET|POST|PUT)" "([^"]*)" with authorization "([^"]*)"$`, s.callsWithAuthorization)
	sc.Step(`^"(\w+)" asks who they are$`, s.asksWhoami)
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response body should contain "([^"]*)"$`, s.theResponseBodyShouldContain)
}

// callsWithTokenIssuedAgo sends a one minute token minted in the past, which
// has expired by the time it arrives.
func (s *StepsContext) callsWithTokenIssuedAgo(name, method, path string, minutes int) error {
	return s.callWithToken(name, method, path, time.Minute, time.Now().Add(-time.Duration(minutes)*time.Minute))
}

func (s *StepsContext) callsWithLongLivedToken(name, method, path string, hours int) error {
	return s.callWithToken(name, method, path, time.Duration(hours)*time.Hour, time.Now())
}

func (s *StepsContext) callsWithValidToken(name, method, path string) error {
	return s.callWithToken(name, method, path, time.Minute, time.Now())
}

func (s *StepsContext) callWithToken(name, method, path string, ttl time.Duration, issuedAt time.Time) error {
	p, err := s.principal(name)
	if err != nil {
		return err
	}
	token, err := identity.IssueToken(p.key, ttl, issuedAt)
	if err != nil {
		return err
	}
	return s.callsWithAuthorization(method, path, "Bearer "+token)
}

func (s *StepsContext) anonymousCalls(method, path string) error {
	return s.callsWithAuthorization(method, path, "")
}

func (s *StepsContext) callsWithAuthorization(method, path, authorization string) error {
	req, err := http.NewRequestWithContext(context.Background(), method, s.instance.URL+path, nil)
	if err != nil {
		return err
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	s.lastErr = nil
	s.status = resp.StatusCode
	s.body = body
	return nil
}

func (s *StepsContext) asksWhoami(name string) error {
	p, err := s.principal(name)
	if err != nil {
		return err
	}
	addr, err := p.client.Whoami(context.Background())
	if err != nil {
		return err
	}
	if addr != p.address {
		return fmt.Errorf("server reports %s, expected %s", addr, p.address)
	}
	return nil
}

func (s *StepsContext) theResponseStatusShouldBe(expected int) error {
	if s.status != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, s.status, string(s.body))
	}
	return nil
}

func (s *StepsContext) theResponseBodyShouldContain(text string) error {
	if !strings.Contains(string(s.body), text) {
		return fmt.Errorf("expected body to contain %q, got %q", text, string(s.body))
	}
	return nil
}
