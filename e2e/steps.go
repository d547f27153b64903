package e2e

import (
	"github.com/cucumber/godog"

	"tenantgate/e2e/steps/common"
	"tenantgate/e2e/steps/tenancy"
)

func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	tenancy.RegisterSteps(ctx, tc)
}
