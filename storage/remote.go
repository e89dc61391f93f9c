package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// RemoteStore implements Store. It requires to connect to a notes server.
// Names are validated locally, so a 400 response to a create can only mean the
// note exists already.
type RemoteStore struct {
	address string
	client  *http.Client
}

func NewRemoteStore(address string) *RemoteStore {
	return &RemoteStore{
		address: address,
		client:  http.DefaultClient,
	}
}

func (r *RemoteStore) Get(name string) (content []byte, err error) {
	name, err = ValidateName(name)
	if err != nil {
		return nil, err
	}
	status, body, err := r.do(http.MethodGet, r.pathFor(name), "", nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(name, status, body, ErrInvalidName); err != nil {
		return nil, err
	}
	return body, nil
}

func (r *RemoteStore) Put(name string, content []byte) (err error) {
	name, err = ValidateName(name)
	if err != nil {
		return err
	}
	status, body, err := r.do(http.MethodPut, r.pathFor(name), "text/plain", bytes.NewReader(content))
	if err != nil {
		return err
	}
	return checkStatus(name, status, body, ErrInvalidName)
}

func (r *RemoteStore) Delete(name string) (err error) {
	name, err = ValidateName(name)
	if err != nil {
		return err
	}
	status, body, err := r.do(http.MethodDelete, r.pathFor(name), "", nil)
	if err != nil {
		return err
	}
	return checkStatus(name, status, body, ErrInvalidName)
}

func (r *RemoteStore) List() (notes []Note, err error) {
	status, body, err := r.do(http.MethodGet, fmt.Sprintf("http://%s/notes", r.address), "", nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus("", status, body, ErrInvalidName); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &notes); err != nil {
		return nil, fmt.Errorf("could not decode note list: %w", err)
	}
	if notes == nil {
		notes = []Note{}
	}
	return notes, nil
}

func (r *RemoteStore) Create(name string, content []byte) (err error) {
	name, err = ValidateName(name)
	if err != nil {
		return err
	}
	form := url.Values{
		"note_name": {name},
		"note":      {string(content)},
	}
	status, body, err := r.do(
		http.MethodPost,
		fmt.Sprintf("http://%s/write", r.address),
		"application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return err
	}
	return checkStatus(name, status, body, ErrAlreadyExists)
}

func (r *RemoteStore) do(method, target, contentType string, reqBody io.Reader) (status int, body []byte, err error) {
	request, err := http.NewRequest(method, target, reqBody)
	if err != nil {
		return 0, nil, err
	}
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	response, err := r.client.Do(request)
	if response != nil && response.Body != nil {
		defer func() {
			_ = response.Body.Close()
		}()
	}
	if err != nil {
		return 0, nil, err
	}
	body, err = io.ReadAll(response.Body)
	if err != nil {
		return 0, nil, err
	}
	return response.StatusCode, body, nil
}

// checkStatus maps a response to the error the corresponding local store
// operation would have returned. A 400 maps to badRequest.
func checkStatus(name string, status int, body []byte, badRequest error) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	case status == http.StatusBadRequest:
		return fmt.Errorf("%q: %w", name, badRequest)
	default:
		return fmt.Errorf("%q: %d %s", name, status, bytes.TrimSpace(body))
	}
}

func (r *RemoteStore) pathFor(name string) string {
	return fmt.Sprintf("http://%s/notes/%s", r.address, url.PathEscape(name))
}
