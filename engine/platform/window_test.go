package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

func TestWindowImplementsVulkanWindow(t *testing.T) {
	var w interface{} = &Window{}
	_, ok := w.(renderer.VulkanWindow)
	assert.True(t, ok)
}
