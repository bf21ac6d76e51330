package gwlog

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLog_FormatsRegisteredTemplate(t *testing.T) {
	lm := NewLogManager()
	entry := lm.BuildLog("codec", "UnmappedDataCoding", logrus.WarnLevel, nil, 4)
	assert.Contains(t, entry.Message, "4")
	assert.Equal(t, "CODEC", entry.Type)
}

func TestBuildLog_UnknownTemplateReportsItself(t *testing.T) {
	lm := NewLogManager()
	entry := lm.BuildLog("x", "DoesNotExist", logrus.InfoLevel, nil)
	assert.Contains(t, entry.Message, "DoesNotExist")
}

func TestAddField_InitializesMapWhenNil(t *testing.T) {
	entry := &LoggingFormat{}
	entry.AddField("key", "value")
	require.NotNil(t, entry.AdditionalData)
	assert.Equal(t, "value", entry.AdditionalData["key"])
}

func TestString_SerializesAsJSON(t *testing.T) {
	lm := NewLogManager()
	entry := lm.BuildLog("codec", "GenericError", logrus.ErrorLevel, map[string]interface{}{"k": "v"}, "boom")
	s := entry.String()
	assert.Contains(t, s, "boom")
	assert.Contains(t, s, `"k":"v"`)
}
