package engine

import (
	"errors"
	"testing"

	"github.com/hamr-launcher/hamr/internal/herr"
	"github.com/stretchr/testify/assert"
)

func TestClassifyPluginErrorMapsKindsToErrorKinds(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"crash", herr.Wrap(herr.KindPlugin, errors.New("exit 2"), "plugin crashed"), "pluginCrashed"},
		{"timeout", herr.Wrap(herr.KindRPC, errors.New("context deadline exceeded"), "plugin request timed out"), "pluginTimeout"},
		{"spawn", herr.Wrap(herr.KindPlugin, errors.New("no such file"), "failed to spawn plugin apps"), "pluginSpawn"},
		{"malformed codec", herr.Wrap(herr.KindCodec, errors.New("unexpected EOF"), "cannot encode plugin request"), "malformed"},
		{"malformed plugin response", herr.Wrap(herr.KindPlugin, errors.New("bad json"), "malformed one-shot response"), "malformed"},
		{"unwrapped", errors.New("boom"), "malformed"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, classifyPluginError(c.err))
		})
	}
}
