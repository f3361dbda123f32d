//nolint:dupl
package utils_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/NethermindEth/incrementer/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

var levelStrings = map[*utils.LogLevel]string{
	utils.NewLogLevel(utils.DEBUG): "debug",
	utils.NewLogLevel(utils.INFO):  "info",
	utils.NewLogLevel(utils.WARN):  "warn",
	utils.NewLogLevel(utils.ERROR): "error",
	utils.NewLogLevel(utils.TRACE): "trace",
}

func TestLogLevelString(t *testing.T) {
	for level, str := range levelStrings {
		t.Run("level "+str, func(t *testing.T) {
			assert.Equal(t, str, level.String())
		})
	}
}

// Tests are similar for LogLevel and Network since they
// both implement the pflag.Value and encoding.TextUnmarshaller interfaces.
func TestLogLevelSet(t *testing.T) {
	for level, str := range levelStrings {
		t.Run("level "+str, func(t *testing.T) {
			l := utils.NewLogLevel(utils.TRACE)
			require.NoError(t, l.Set(str))
			assert.Equal(t, level.Level(), l.Level())
		})
		uppercase := strings.ToUpper(str)
		t.Run("level "+uppercase, func(t *testing.T) {
			l := utils.NewLogLevel(utils.TRACE)
			require.NoError(t, l.Set(uppercase))
			assert.Equal(t, level.Level(), l.Level())
		})
	}

	t.Run("zero value", func(t *testing.T) {
		l := new(utils.LogLevel)
		require.NoError(t, l.Set("warn"))
		assert.Equal(t, utils.WARN, l.Level())
	})

	t.Run("unknown log level", func(t *testing.T) {
		l := new(utils.LogLevel)
		require.ErrorIs(t, l.Set("blah"), utils.ErrUnknownLogLevel)
	})
}

func TestLogLevelUnmarshalText(t *testing.T) {
	for level, str := range levelStrings {
		t.Run("level "+str, func(t *testing.T) {
			l := utils.NewLogLevel(utils.TRACE)
			require.NoError(t, l.UnmarshalText([]byte(str)))
			assert.Equal(t, level.Level(), l.Level())
		})
	}

	t.Run("unknown log level", func(t *testing.T) {
		l := new(utils.LogLevel)
		require.ErrorIs(t, l.UnmarshalText([]byte("blah")), utils.ErrUnknownLogLevel)
	})
}

func TestLogLevelMarshalJSON(t *testing.T) {
	for level, str := range levelStrings {
		t.Run("level "+str, func(t *testing.T) {
			lb, err := json.Marshal(level)
			require.NoError(t, err)

			expectedStr := `"` + str + `"`
			assert.Equal(t, expectedStr, string(lb))
		})
	}
}

func TestLogLevelType(t *testing.T) {
	assert.Equal(t, "LogLevel", new(utils.LogLevel).Type())
}

func TestMarshalYAML(t *testing.T) {
	for level, str := range levelStrings {
		t.Run("level "+str, func(t *testing.T) {
			data, err := yaml.Marshal(*level)
			require.NoError(t, err)
			assert.Equal(t, str+"\n", string(data))
		})
	}
}

func TestZapLogger(t *testing.T) {
	for _, colour := range []bool{true, false} {
		for level, str := range levelStrings {
			t.Run(fmt.Sprintf("level %s colour %v", str, colour), func(t *testing.T) {
				_, err := utils.NewZapLogger(level, colour, "")
				assert.NoError(t, err)
			})
		}
	}

	t.Run("nil level", func(t *testing.T) {
		_, err := utils.NewZapLogger(nil, false, "")
		require.ErrorIs(t, err, utils.ErrUnknownLogLevel)
	})

	t.Run("zero level defaults to info", func(t *testing.T) {
		level := new(utils.LogLevel)
		_, err := utils.NewZapLogger(level, false, "")
		require.NoError(t, err)
		assert.Equal(t, utils.INFO, level.Level())
	})
}

func TestZapLoggerWithFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "incrementer.log")

	log, err := utils.NewZapLogger(utils.NewLogLevel(utils.INFO), true, logFile)
	require.NoError(t, err)

	log.Infow("Connected wallet", "account", "0xabc")
	log.Debugw("below level")

	contents, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "INFO")
	assert.Contains(t, string(contents), "Connected wallet")
	assert.NotContains(t, string(contents), "below level")
	assert.NotContains(t, string(contents), "\x1b[")
}

func TestTracew(t *testing.T) {
	for name, expected := range map[utils.LogLevel]bool{
		*utils.NewLogLevel(utils.TRACE): true,
		*utils.NewLogLevel(utils.INFO):  false,
	} {
		t.Run(name.String(), func(t *testing.T) {
			var buf bytes.Buffer
			core := zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(&buf),
				name.Level(),
			)
			log := utils.NewZapLoggerWithCore(core)
			assert.Equal(t, expected, log.IsTraceEnabled())

			log.Tracew("trace message")
			assert.Equal(t, expected, strings.Contains(buf.String(), "trace message"))
		})
	}
}

func TestHTTPLogSettings(t *testing.T) {
	logLevel := utils.NewLogLevel(utils.INFO)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.HTTPLogSettings(w, r, logLevel)
	})

	tests := []struct {
		name   string
		method string
		target string
		code   int
		body   string
	}{
		{"GET current log level", http.MethodGet, "/log/level", http.StatusOK, "info\n"},
		{
			"PUT update log level", http.MethodPut, "/log/level?level=debug", http.StatusOK,
			"Replaced log level with 'debug' successfully\n",
		},
		{"PUT with missing parameter", http.MethodPut, "/log/level", http.StatusBadRequest, "missing level query parameter\n"},
		{
			"PUT with invalid level", http.MethodPut, "/log/level?level=invalid", http.StatusBadRequest,
			utils.ErrUnknownLogLevel.Error() + "\n",
		},
		{"method not allowed", http.MethodPost, "/log/level", http.StatusMethodNotAllowed, "Method not allowed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, http.NoBody)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.code, rr.Code)
			assert.Equal(t, tt.body, rr.Body.String())
		})
	}
	assert.Equal(t, utils.DEBUG, logLevel.Level())
}
