package tenancy

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/cucumber/godog"
)

// TestContext is the part of the scenario state the tenancy steps need.
type TestContext interface {
	Do(method, path string, body any) error
	POST(path string, body any) error
	GET(path string) error
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte

	SetTokens(access, session string)
	GetSessionToken() string
	ClearAccessToken()
	GetTenant() (string, string)
	SetTenant(tenantID, slug string)
	GetLastVenueID() string
	SetLastVenueID(id string)
	AdminCredentials() (string, string)
	GetDemoPassword() string
	RememberDemoTenant(slug, tenantID string)
	DemoTenant(slug string) (string, bool)
}

const userPassword = "e2e-user-password"

func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &tenancySteps{tc: tc}

	ctx.Step(`^I am signed in as the super admin$`, steps.signInSuperAdmin)
	ctx.Step(`^a fresh tenant on the "([^"]*)" plan$`, steps.freshTenant)
	ctx.Step(`^the tenant has a "([^"]*)" named "([^"]*)"$`, steps.tenantHasUser)
	ctx.Step(`^I sign in as "([^"]*)" of the tenant$`, steps.signInTenantUser)
	ctx.Step(`^I sign in as "([^"]*)" of the tenant with password "([^"]*)"$`, steps.signInTenantUserWithPassword)
	ctx.Step(`^I sign in as "([^"]*)" of demo tenant "([^"]*)"$`, steps.signInDemoUser)
	ctx.Step(`^I sign out$`, steps.signOut)
	ctx.Step(`^I request my principal$`, steps.requestPrincipal)

	ctx.Step(`^I note the ID of demo tenant "([^"]*)"$`, steps.noteDemoTenant)
	ctx.Step(`^I list venues of demo tenant "([^"]*)"$`, steps.listDemoVenues)
	ctx.Step(`^I list venues of the tenant$`, steps.listVenues)
	ctx.Step(`^I create a venue "([^"]*)" with capacity (\d+)$`, steps.createVenue)
	ctx.Step(`^I book the venue (\d+) days ahead$`, steps.bookVenue)
	ctx.Step(`^I voice-book the venue (\d+) days ahead$`, steps.voiceBookVenue)
	ctx.Step(`^I check the capability "([^"]*)"$`, steps.checkCapability)
	ctx.Step(`^I create user "([^"]*)" with role "([^"]*)"$`, steps.createUser)
	ctx.Step(`^I (suspend|activate|cancel) the tenant$`, steps.transitionTenant)
}

type tenancySteps struct {
	tc TestContext
}

func (s *tenancySteps) login(body map[string]string) error {
	s.tc.ClearAccessToken()
	if err := s.tc.POST("/auth/login", body); err != nil {
		return err
	}
	if s.tc.GetLastResponseStatus() != http.StatusOK {
		return nil
	}
	access, err := s.tc.GetResponseField("access_token")
	if err != nil {
		return err
	}
	session, err := s.tc.GetResponseField("session_token")
	if err != nil {
		return err
	}
	s.tc.SetTokens(access.(string), session.(string))
	return nil
}

func (s *tenancySteps) requireStatus(want int) error {
	if got := s.tc.GetLastResponseStatus(); got != want {
		return fmt.Errorf("expected status %d but got %d: %s", want, got, string(s.tc.GetLastResponseBody()))
	}
	return nil
}

func (s *tenancySteps) signInSuperAdmin(context.Context) error {
	email, password := s.tc.AdminCredentials()
	if err := s.login(map[string]string{"kind": "super_admin", "email": email, "password": password}); err != nil {
		return err
	}
	return s.requireStatus(http.StatusOK)
}

func (s *tenancySteps) freshTenant(ctx context.Context, plan string) error {
	if err := s.signInSuperAdmin(ctx); err != nil {
		return err
	}
	slug := fmt.Sprintf("e2e-%d-%04d", time.Now().Unix(), rand.IntN(10000))
	if err := s.tc.POST("/admin/tenants", map[string]string{"name": "E2E " + slug, "slug": slug, "plan": plan}); err != nil {
		return err
	}
	if err := s.requireStatus(http.StatusCreated); err != nil {
		return err
	}
	tenantID, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s.tc.SetTenant(tenantID.(string), slug)

	if err := s.tc.POST("/admin/tenants/"+tenantID.(string)+"/activate", nil); err != nil {
		return err
	}
	return s.requireStatus(http.StatusOK)
}

// tenantHasUser creates the user while the super admin is still signed in.
func (s *tenancySteps) tenantHasUser(_ context.Context, role, local string) error {
	tenantID, slug := s.tc.GetTenant()
	if err := s.tc.POST("/tenants/"+tenantID+"/users", map[string]any{
		"email":    local + "@" + slug + ".test",
		"password": userPassword,
		"roles":    []string{role},
	}); err != nil {
		return err
	}
	return s.requireStatus(http.StatusCreated)
}

func (s *tenancySteps) signInTenantUser(ctx context.Context, local string) error {
	if err := s.signInTenantUserWithPassword(ctx, local, userPassword); err != nil {
		return err
	}
	return s.requireStatus(http.StatusOK)
}

func (s *tenancySteps) signInTenantUserWithPassword(_ context.Context, local, password string) error {
	_, slug := s.tc.GetTenant()
	return s.login(map[string]string{
		"kind":        "tenant_user",
		"tenant_slug": slug,
		"email":       local + "@" + slug + ".test",
		"password":    password,
	})
}

func (s *tenancySteps) signInDemoUser(_ context.Context, local, slug string) error {
	if err := s.login(map[string]string{
		"kind":        "tenant_user",
		"tenant_slug": slug,
		"email":       local + "@" + slug + ".test",
		"password":    s.tc.GetDemoPassword(),
	}); err != nil {
		return err
	}
	if err := s.requireStatus(http.StatusOK); err != nil {
		return err
	}
	raw, err := s.tc.GetResponseField("principal")
	if err != nil {
		return err
	}
	principal, _ := raw.(map[string]any)
	tenantID, _ := principal["tenant_id"].(string)
	s.tc.SetTenant(tenantID, slug)
	return nil
}

func (s *tenancySteps) signOut(context.Context) error {
	if err := s.tc.POST("/auth/logout", map[string]string{"session_token": s.tc.GetSessionToken()}); err != nil {
		return err
	}
	return s.requireStatus(http.StatusNoContent)
}

func (s *tenancySteps) requestPrincipal(context.Context) error {
	return s.tc.GET("/auth/me")
}

// noteDemoTenant resolves a seeded tenant's ID through the super admin's
// tenant list. Run it before signing in as the principal under test.
func (s *tenancySteps) noteDemoTenant(ctx context.Context, slug string) error {
	if err := s.signInSuperAdmin(ctx); err != nil {
		return err
	}
	if err := s.tc.GET("/admin/tenants"); err != nil {
		return err
	}
	if err := s.requireStatus(http.StatusOK); err != nil {
		return err
	}
	raw, err := s.tc.GetResponseField("tenants")
	if err != nil {
		return err
	}
	tenants, _ := raw.([]any)
	for _, t := range tenants {
		m, _ := t.(map[string]any)
		if m["slug"] == slug {
			s.tc.RememberDemoTenant(slug, m["id"].(string))
			return nil
		}
	}
	return fmt.Errorf("demo tenant %q not found", slug)
}

func (s *tenancySteps) listDemoVenues(_ context.Context, slug string) error {
	tenantID, ok := s.tc.DemoTenant(slug)
	if !ok {
		return fmt.Errorf("demo tenant %q was not noted", slug)
	}
	return s.tc.GET("/tenants/" + tenantID + "/venues")
}

func (s *tenancySteps) listVenues(context.Context) error {
	tenantID, _ := s.tc.GetTenant()
	return s.tc.GET("/tenants/" + tenantID + "/venues")
}

func (s *tenancySteps) createVenue(_ context.Context, name string, capacity int) error {
	tenantID, _ := s.tc.GetTenant()
	if err := s.tc.POST("/tenants/"+tenantID+"/venues", map[string]any{"name": name, "capacity": capacity}); err != nil {
		return err
	}
	if s.tc.GetLastResponseStatus() == http.StatusCreated {
		venueID, err := s.tc.GetResponseField("id")
		if err != nil {
			return err
		}
		s.tc.SetLastVenueID(venueID.(string))
	}
	return nil
}

func (s *tenancySteps) book(path string, days int) error {
	tenantID, _ := s.tc.GetTenant()
	return s.tc.POST("/tenants/"+tenantID+path, map[string]string{
		"venue_id":   s.tc.GetLastVenueID(),
		"event_date": time.Now().UTC().AddDate(0, 0, days).Format(time.DateOnly),
	})
}

func (s *tenancySteps) bookVenue(_ context.Context, days int) error {
	return s.book("/bookings", days)
}

func (s *tenancySteps) voiceBookVenue(_ context.Context, days int) error {
	return s.book("/bookings/voice", days)
}

func (s *tenancySteps) checkCapability(_ context.Context, capability string) error {
	tenantID, _ := s.tc.GetTenant()
	return s.tc.GET("/tenants/" + tenantID + "/capabilities/" + capability)
}

func (s *tenancySteps) createUser(_ context.Context, local, role string) error {
	tenantID, slug := s.tc.GetTenant()
	return s.tc.POST("/tenants/"+tenantID+"/users", map[string]any{
		"email":    local + "@" + slug + ".test",
		"password": userPassword,
		"roles":    []string{role},
	})
}

func (s *tenancySteps) transitionTenant(_ context.Context, action string) error {
	tenantID, _ := s.tc.GetTenant()
	return s.tc.POST("/admin/tenants/"+tenantID+"/"+action, nil)
}
