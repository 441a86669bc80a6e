package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-profileform/internal/cli"
	"github.com/goliatone/go-profileform/internal/config"
	"github.com/goliatone/go-profileform/internal/server"
	"github.com/goliatone/go-profileform/internal/tui"
	"github.com/goliatone/go-profileform/pkg/action"
	"github.com/goliatone/go-profileform/pkg/model"
)

type scriptedDriver struct {
	answers  []string
	confirms []bool
	infos    []string
}

func (d *scriptedDriver) next() (string, error) {
	if len(d.answers) == 0 {
		return "", errors.New("no answer scripted")
	}
	answer := d.answers[0]
	d.answers = d.answers[1:]
	return answer, nil
}

func (d *scriptedDriver) Ask(_ context.Context, q tui.Question) (string, error) {
	answer, err := d.next()
	if err == nil && q.Check != nil {
		if cerr := q.Check(answer); cerr != nil {
			return "", cerr
		}
	}
	return answer, err
}

func (d *scriptedDriver) AskText(context.Context, tui.Question) (string, error) {
	return d.next()
}

func (d *scriptedDriver) AskSecret(context.Context, tui.Question) (string, error) {
	return d.next()
}

func (d *scriptedDriver) Confirm(context.Context, string, bool) (bool, error) {
	if len(d.confirms) == 0 {
		return false, errors.New("no confirm scripted")
	}
	c := d.confirms[0]
	d.confirms = d.confirms[1:]
	return c, nil
}

func (d *scriptedDriver) Info(_ context.Context, msg string) error {
	d.infos = append(d.infos, msg)
	return nil
}

func startServer(t *testing.T) string {
	t.Helper()
	rt, err := server.FromConfig(context.Background(), config.Default(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	srv := httptest.NewServer(rt.Server.Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

func run(t *testing.T, driver *scriptedDriver, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := cli.NewRootCommand(cli.Env{Out: &out, Err: &errOut, Driver: driver})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSubmitSuccess(t *testing.T) {
	url := startServer(t)
	driver := &scriptedDriver{answers: []string{"Ada Lovelace", "ada@example.com", "36", "Mathematician."}}

	_, err := run(t, driver, "submit", "--url", url)
	require.NoError(t, err)
	require.Len(t, driver.infos, 1)
	assert.True(t, strings.HasPrefix(driver.infos[0], "Profile saved at "))
}

func TestSubmitServerValidationThenRetry(t *testing.T) {
	url := startServer(t)
	driver := &scriptedDriver{
		answers: []string{
			"A", "ada@example.com", "36", "",
			"Ada", "ada@example.com", "36", "",
		},
		confirms: []bool{true},
	}

	_, err := run(t, driver, "submit", "--url", url, "--no-client-validation")
	require.NoError(t, err)
	require.Len(t, driver.infos, 2)
	assert.Contains(t, driver.infos[0], "Name: Name must be at least 2 characters")
	assert.Contains(t, driver.infos[1], "Profile saved at ")
}

func TestSubmitOnceFails(t *testing.T) {
	url := startServer(t)
	driver := &scriptedDriver{answers: []string{"A", "ada@example.com", "36", ""}}

	_, err := run(t, driver, "submit", "--url", url, "--no-client-validation", "--once")
	require.ErrorIs(t, err, cli.ErrSubmissionFailed)
}

func TestSchemaCommand(t *testing.T) {
	out, err := run(t, &scriptedDriver{}, "schema")
	require.NoError(t, err)

	var form model.FormModel
	require.NoError(t, json.Unmarshal([]byte(out), &form))
	assert.Equal(t, []string{"name", "email", "age", "bio"}, form.FieldNames())

	raw, err := run(t, &scriptedDriver{}, "schema", "--openapi")
	require.NoError(t, err)
	assert.Contains(t, raw, "operationId: submitProfile")
}

func TestTokenCommand(t *testing.T) {
	out, err := run(t, &scriptedDriver{}, "token", "--secret", "s3cret", "--subject", "ada")
	require.NoError(t, err)

	claims := &action.Claims{}
	_, err = jwt.ParseWithClaims(strings.TrimSpace(out), claims, func(*jwt.Token) (any, error) {
		return []byte("s3cret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ada", claims.Subject)
	assert.True(t, claims.HasScope(action.WriteScope))
}

func TestTokenCommandPromptsForSecret(t *testing.T) {
	t.Setenv("PROFILEFORM_JWT_SECRET", "")
	out, err := run(t, &scriptedDriver{answers: []string{"prompted"}}, "token")
	require.NoError(t, err)

	_, err = jwt.ParseWithClaims(strings.TrimSpace(out), &action.Claims{}, func(*jwt.Token) (any, error) {
		return []byte("prompted"), nil
	})
	require.NoError(t, err)

	_, err = run(t, &scriptedDriver{answers: []string{"  "}}, "token")
	require.Error(t, err)
}

func TestProfilesCommand(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "profiles.db")
	t.Setenv("PROFILEFORM_STORE_DRIVER", "sqlite")
	t.Setenv("PROFILEFORM_DATABASE_URL", dsn)

	cfg, err := config.Load("")
	require.NoError(t, err)
	rt, err := server.FromConfig(context.Background(), cfg, nil)
	require.NoError(t, err)
	srv := httptest.NewServer(rt.Server.Handler())
	driver := &scriptedDriver{answers: []string{"Ada Lovelace", "ada@example.com", "36", ""}}
	_, err = run(t, driver, "submit", "--url", srv.URL)
	srv.Close()
	require.NoError(t, rt.Close())
	require.NoError(t, err)

	out, err := run(t, &scriptedDriver{}, "profiles", "--env", "", "--json")
	require.NoError(t, err)
	var profiles []model.StoredProfile
	require.NoError(t, json.Unmarshal([]byte(out), &profiles))
	require.Len(t, profiles, 1)
	assert.Equal(t, "ada@example.com", profiles[0].Email)
}
