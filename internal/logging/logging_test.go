package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew(t *testing.T) {
	tests := []struct {
		env, level string
		json       bool
		want       logrus.Level
	}{
		{"production", "debug", true, logrus.DebugLevel},
		{"development", "warn", false, logrus.WarnLevel},
		{"", "nonsense", true, logrus.InfoLevel},
		{"DEVELOPMENT", "", false, logrus.InfoLevel},
	}

	for _, tt := range tests {
		log := New(tt.env, tt.level)
		if log.GetLevel() != tt.want {
			t.Errorf("New(%q, %q): level %v, expected %v", tt.env, tt.level, log.GetLevel(), tt.want)
		}
		_, isJSON := log.Formatter.(*logrus.JSONFormatter)
		if isJSON != tt.json {
			t.Errorf("New(%q, %q): json formatter = %v, expected %v", tt.env, tt.level, isJSON, tt.json)
		}
	}
}
