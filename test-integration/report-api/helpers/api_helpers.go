package helpers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/onsi/gomega"
)

// Credentials is the auth object of a request body
type Credentials struct {
	APIKey    string `json:"apiKey,omitempty"`
	APISecret string `json:"apiSecret,omitempty"`
}

// Envelope is a decoded API answer
type Envelope struct {
	Result json.RawMessage `json:"result"`
	ID     json.RawMessage `json:"id"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Decode reads an API answer and checks its status code
func Decode(resp *http.Response, err error, wantStatus int) Envelope {
	gomega.ExpectWithOffset(1, err).NotTo(gomega.HaveOccurred())
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	gomega.ExpectWithOffset(1, err).NotTo(gomega.HaveOccurred())
	gomega.ExpectWithOffset(1, resp.StatusCode).To(gomega.Equal(wantStatus), string(body))

	var env Envelope
	gomega.ExpectWithOffset(1, json.Unmarshal(body, &env)).To(gomega.Succeed(), string(body))
	return env
}

// ResultAs unmarshals the result of env into v
func ResultAs[T any](env Envelope) T {
	var v T
	gomega.ExpectWithOffset(1, json.Unmarshal(env.Result, &v)).To(gomega.Succeed(), string(env.Result))
	return v
}
