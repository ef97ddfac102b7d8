package gcp

import (
	"encoding/json"
	"errors"
	"strings"

	"google.golang.org/api/option"

	"github.com/yungbote/interview-brief-backend/internal/platform/envutil"
)

// ClientOptionsFromEnv reads credentials from GOOGLE_APPLICATION_CREDENTIALS_JSON
// (inline JSON) or GOOGLE_APPLICATION_CREDENTIALS (inline JSON or a file path).
// No options means application default credentials.
func ClientOptionsFromEnv() ([]option.ClientOption, error) {
	creds := envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON", "")
	if creds == "" {
		creds = envutil.String("GOOGLE_APPLICATION_CREDENTIALS", "")
	}
	switch {
	case creds == "":
		return nil, nil
	case strings.HasPrefix(creds, "{"):
		if !json.Valid([]byte(creds)) {
			return nil, errors.New("inline google credentials are not valid JSON")
		}
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}, nil
	default:
		return []option.ClientOption{option.WithCredentialsFile(creds)}, nil
	}
}
