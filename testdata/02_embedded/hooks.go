package hooks

type BaseContext struct{}

// @BeforeScenario
func (b *BaseContext) Prepare() {}

// Inherited hook.
//
// @AfterSuite
func (b *BaseContext) Teardown() {}

type MiddleContext struct{ BaseContext }

// @BeforeStep
func (m *MiddleContext) Prepare() {}

type FeatureContext struct{ *MiddleContext }

// @AfterScenario
func (f *FeatureContext) Prepare() {}

// Hooks declares callbacks through an interface.
type Hooks interface {
	// @BeforeFeature
	Open()
}

type InterfaceContext struct{ Hooks }

// @AfterFeature
func (c InterfaceContext) Open() {}

type Left struct{}

// @given left
func (Left) Pick() {}

type Right struct{}

// @given right
func (Right) Pick() {}

type Both struct {
	Left
	Right
}

// @when both
func (Both) Pick() {}
