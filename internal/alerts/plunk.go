package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

const defaultPlunkURL = "https://api.useplunk.com/v1/send"

type plunkSettings struct {
	APIKey string
	From   string
	APIURL string
}

var plunkCfg plunkSettings

// ConfigurePlunkFromEnv loads the Plunk transactional-mail settings.
// PLUNK_API_KEY is required; PLUNK_FROM and PLUNK_API_URL are optional.
func ConfigurePlunkFromEnv() error {
	plunkCfg = plunkSettings{
		APIKey: os.Getenv("PLUNK_API_KEY"),
		From:   os.Getenv("PLUNK_FROM"),
		APIURL: os.Getenv("PLUNK_API_URL"),
	}
	if plunkCfg.APIURL == "" {
		plunkCfg.APIURL = defaultPlunkURL
	}
	if plunkCfg.APIKey == "" {
		return fmt.Errorf("plunk not configured: set PLUNK_API_KEY")
	}
	return nil
}

// sendViaPlunk posts one message to the Plunk send endpoint.
func sendViaPlunk(to, subject, body string) error {
	if plunkCfg.APIKey == "" {
		if err := ConfigurePlunkFromEnv(); err != nil {
			return err
		}
	}

	payload, _ := json.Marshal(map[string]string{
		"to":      to,
		"subject": subject,
		"body":    body,
		"from":    plunkCfg.From,
		"reply":   os.Getenv("MAIL_REPLY_TO"),
	})

	req, err := http.NewRequest(http.MethodPost, plunkCfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+plunkCfg.APIKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(resp.Body)
		if len(detail) > 0 {
			return fmt.Errorf("plunk send failed: status=%d body=%s", resp.StatusCode, detail)
		}
		return fmt.Errorf("plunk send failed: status=%d", resp.StatusCode)
	}
	return nil
}
