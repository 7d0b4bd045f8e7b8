package cfg_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	convCfg "github.com/sofmon/posgate/lib/cfg"
)

func TestConfigFolder(t *testing.T) {

	dir := t.TempDir()

	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	write(string(convCfg.ConfigKeySuperAdminAccount), "root\n")
	write(string(convCfg.ConfigKeyAccess), `{"tenant_exempt":["/admin"]}`)

	if err := convCfg.SetConfigLocation(dir); err != nil {
		t.Fatalf("SetConfigLocation failed: %v", err)
	}

	account, err := convCfg.String(convCfg.ConfigKeySuperAdminAccount)
	if err != nil {
		t.Fatalf("String failed: %v", err)
	}
	if account != "root" {
		t.Fatalf("expected trimmed value 'root', got %q", account)
	}

	_, err = convCfg.String(convCfg.ConfigKeyBackendURL)
	if !errors.Is(err, convCfg.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if v := convCfg.StringOrDefault(convCfg.ConfigKeyBackendURL, "http://backend"); v != "http://backend" {
		t.Fatalf("expected default, got %q", v)
	}

	obj, err := convCfg.Object[struct {
		TenantExempt []string `json:"tenant_exempt"`
	}](convCfg.ConfigKeyAccess)
	if err != nil {
		t.Fatalf("Object failed: %v", err)
	}
	if len(obj.TenantExempt) != 1 || obj.TenantExempt[0] != "/admin" {
		t.Fatalf("unexpected object: %+v", obj)
	}

	if err := convCfg.SetConfigLocation(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for missing folder")
	}
}

func TestExists(t *testing.T) {

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, string(convCfg.ConfigKeyCertificate)), []byte("cert"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, string(convCfg.ConfigKeyCertificateKey)), 0o700); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}

	if err := convCfg.SetConfigLocation(dir); err != nil {
		t.Fatalf("SetConfigLocation failed: %v", err)
	}

	testData := []struct {
		key    convCfg.ConfigKey
		expect bool
	}{
		{convCfg.ConfigKeyCertificate, true},
		{convCfg.ConfigKeyCertificateKey, false},
		{convCfg.ConfigKeyListenAddr, false},
	}

	for _, td := range testData {
		if convCfg.Exists(td.key) != td.expect {
			t.Fatalf("Exists(%s): expected %v", td.key, td.expect)
		}
	}
}
