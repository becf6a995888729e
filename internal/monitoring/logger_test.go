package monitoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogger(t *testing.T) {
	defer SetLogger(nil)

	var captured string
	SetLogger(func(format string, v ...interface{}) {
		captured = fmt.Sprintf(format, v...)
	})
	Logf("rep %d accepted", 3)
	assert.Equal(t, "rep 3 accepted", captured)

	// nil installs a no-op logger rather than panicking.
	SetLogger(nil)
	Logf("should not be recorded")
	assert.Equal(t, "rep 3 accepted", captured)
}
