package steps

// FeatureContext is the step context.
type FeatureContext struct{}

// Creates a new widget.
//
// @when I create a widget
func (c *FeatureContext) CreateWidget() {}

// @given "a simple step"
func (c *FeatureContext) SimpleStep() {}

// NoTags has prose only.
func (c *FeatureContext) NoTags() {}

func (c *FeatureContext) Undocumented() {}

// @then the widget should have
//
//	a name and
//	a color
func (c *FeatureContext) WidgetHas() {}

/**
 * Converts counts.
 *
 * @Transform /^(\d+)$/
 */
func (c FeatureContext) CastCount() {}

// @given hidden
func (c *FeatureContext) hidden() {}

// NoMethods has nothing to reflect.
type NoMethods struct{}

type helper struct{}

// @given unexported type
func (h helper) Help() {}
