package common

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext is the part of the scenario state the common steps need.
type TestContext interface {
	GET(path string) error
	GetResponseField(field string) (any, error)
	ResponseContains(text string) bool
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
}

// RegisterSteps registers request and assertion steps shared by every feature.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^tenantgate is running$`, steps.tenantgateIsRunning)
	ctx.Step(`^I GET "([^"]*)"$`, steps.get)

	ctx.Step(`^the response status should be (\d+)$`, steps.responseStatusShouldBe)
	ctx.Step(`^the response should contain "([^"]*)"$`, steps.responseShouldContain)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.responseFieldShouldEqual)
	ctx.Step(`^the response field "([^"]*)" should have (\d+) items?$`, steps.responseFieldShouldHaveItems)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) tenantgateIsRunning(ctx context.Context) error {
	if err := s.tc.GET("/health/live"); err != nil {
		return err
	}
	return s.responseStatusShouldBe(ctx, 200)
}

func (s *commonSteps) get(_ context.Context, path string) error {
	return s.tc.GET(path)
}

func (s *commonSteps) responseStatusShouldBe(_ context.Context, expectedStatus int) error {
	if actual := s.tc.GetLastResponseStatus(); actual != expectedStatus {
		return fmt.Errorf("expected status %d but got %d: %s", expectedStatus, actual, string(s.tc.GetLastResponseBody()))
	}
	return nil
}

func (s *commonSteps) responseShouldContain(_ context.Context, text string) error {
	if !s.tc.ResponseContains(text) {
		return fmt.Errorf("response does not contain %q\nResponse: %s", text, string(s.tc.GetLastResponseBody()))
	}
	return nil
}

func (s *commonSteps) responseFieldShouldEqual(_ context.Context, field, expected string) error {
	actual, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if fmt.Sprint(actual) != expected {
		return fmt.Errorf("field %s: expected %s but got %v", field, expected, actual)
	}
	return nil
}

func (s *commonSteps) responseFieldShouldHaveItems(_ context.Context, field string, n int) error {
	actual, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	items, ok := actual.([]any)
	if !ok {
		raw, _ := json.Marshal(actual)
		return fmt.Errorf("field %s is not a list: %s", field, strings.TrimSpace(string(raw)))
	}
	if len(items) != n {
		return fmt.Errorf("field %s: expected %d items but got %d", field, n, len(items))
	}
	return nil
}
