package steps

import "example.com/cross/base"

type FeatureContext struct {
	base.Context
}

// @AfterScenario
func (f *FeatureContext) Reset() {}

// @given I am on {page}
func (f *FeatureContext) OnPage(page string) {}
