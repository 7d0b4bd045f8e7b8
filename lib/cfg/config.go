package cfg

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

type ConfigKey string

const (
	ConfigKeyEnvironment         ConfigKey = "environment"
	ConfigKeyCommunicationSecret ConfigKey = "communication_secret"
	ConfigKeySuperAdminAccount   ConfigKey = "superadmin_account"
	ConfigKeyAccess              ConfigKey = "access"
	ConfigKeyRoutes              ConfigKey = "routes"
	ConfigKeyRoutesProvider      ConfigKey = "routes_provider"
	ConfigKeyRoutesBucket        ConfigKey = "routes_bucket"
	ConfigKeyRoutesCredentials   ConfigKey = "routes_credentials"
	ConfigKeyBackendURL          ConfigKey = "backend_url"
	ConfigKeyFrontendURL         ConfigKey = "frontend_url"
	ConfigKeySessionStore        ConfigKey = "session_store"
	ConfigKeySessionDB           ConfigKey = "session_db"
	ConfigKeyListenAddr          ConfigKey = "listen_addr"
	ConfigKeyCertificate         ConfigKey = "communication_certificate"
	ConfigKeyCertificateKey      ConfigKey = "communication_key"
)

var (
	ErrNotFound = errors.New("config key not found")
)

var configLocation = "/etc/app/"

func SetConfigLocation(folder string) error {
	fi, err := os.Stat(folder)
	if os.IsNotExist(err) {
		return fmt.Errorf("folder '%s' does not exists", folder)
	}
	if err != nil {
		return fmt.Errorf("error reading folder '%s': %w", folder, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("config location '%s' must be a folder", folder)
	}
	configLocation = folder
	if !strings.HasSuffix(configLocation, "/") {
		configLocation += "/"
	}
	return nil
}

func ConfigLocation() string {
	return configLocation
}

func FilePath(key ConfigKey) string {
	return configLocation + string(key)
}

// Exists reports whether the key has a file in the config location.
func Exists(key ConfigKey) bool {
	fi, err := os.Stat(FilePath(key))
	return err == nil && !fi.IsDir()
}

func Bytes(key ConfigKey) (value []byte, err error) {
	file := configLocation + string(key)
	value, err = os.ReadFile(file)
	if os.IsNotExist(err) {
		err = fmt.Errorf("error reading config file '%s': %w", file, ErrNotFound)
		return
	}
	if err != nil {
		err = fmt.Errorf("error reading config file '%s': %w", file, err)
	}
	return
}


// String reads the key and trims surrounding whitespace; config files
// written by editors or `echo` usually end with a newline.
func String(key ConfigKey) (value string, err error) {
	raw, err := Bytes(key)
	if err != nil {
		return "", err
	}
	value = strings.TrimSpace(string(raw))
	return
}

func StringOrPanic(key ConfigKey) (res string) {
	res, err := String(key)
	if err != nil {
		panic(err)
	}
	return
}

// StringOrDefault returns def when the key is missing or empty.
func StringOrDefault(key ConfigKey, def string) string {
	value, err := String(key)
	if err != nil || value == "" {
		return def
	}
	return value
}

func Object[T any](key ConfigKey) (res T, err error) {
	bytes, err := Bytes(key)
	if err != nil {
		return
	}
	err = json.Unmarshal(bytes, &res)
	if err != nil {
		err = fmt.Errorf("error decoding config file '%s': %w", FilePath(key), err)
		return
	}
	return
}
