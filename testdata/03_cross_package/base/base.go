package base

// Context carries the shared hooks.
type Context struct{}

// Cleans the database.
//
// @BeforeScenario @database
func (c *Context) Reset() {}

// @AfterSuite
func (c *Context) Close() {}
