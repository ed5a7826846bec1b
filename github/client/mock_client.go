package client

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"sync"
)

// MockGitHubV4Client is a mock implementation of the GitHubV4Client interface for testing.
type MockGitHubV4Client struct {
	// ExpectedVariables is the map of variables the mock expects to receive.
	ExpectedVariables map[string]interface{}
	// ResponseToReturn is the data structure to be marshalled into the query result.
	ResponseToReturn interface{}
	// Responses are consumed one per call before ResponseToReturn is used.
	// Use it for paginated queries.
	Responses []interface{}
	// ErrorToReturn is the error to return when Query is called.
	ErrorToReturn error
	// QueryCallCount tracks how many times Query was called.
	QueryCallCount int
	// Variables records a copy of the variables of every call.
	Variables []map[string]interface{}
	// T is a testing object for reporting errors (*testing.T or *testing.B)
	T testingT
	// QueryFunc allows overriding Query behavior for complex mocks.
	QueryFunc func(ctx context.Context, q interface{}, variables map[string]interface{}) error

	mu sync.Mutex
}

// testingT is an interface wrapper around *testing.T
type testingT interface {
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

// Query mocks the Query method of the GitHubV4Client interface.
// It records the call, calls QueryFunc if set, otherwise returns the
// pre-configured error or copies the next response into q.
func (m *MockGitHubV4Client) Query(ctx context.Context, q interface{}, variables map[string]interface{}) error {
	m.mu.Lock()
	m.QueryCallCount++
	m.Variables = append(m.Variables, maps.Clone(variables))
	queryFunc := m.QueryFunc
	m.mu.Unlock()

	if queryFunc != nil {
		return queryFunc(ctx, q, variables)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ErrorToReturn != nil {
		return m.ErrorToReturn
	}

	if m.ExpectedVariables != nil && !reflect.DeepEqual(m.ExpectedVariables, variables) {
		err := fmt.Errorf("mock Query: variables mismatch. Expected %v, Got %v", m.ExpectedVariables, variables)
		if m.T != nil {
			m.T.Errorf("%s", err)
		}
		return err
	}

	resp := m.ResponseToReturn
	if len(m.Responses) > 0 {
		resp, m.Responses = m.Responses[0], m.Responses[1:]
	}
	if resp == nil {
		return nil
	}
	return m.fill(q, resp)
}

// fill copies resp into q the way the real client decodes a response body.
func (m *MockGitHubV4Client) fill(q, resp interface{}) error {
	if reflect.ValueOf(q).Kind() != reflect.Ptr {
		err := fmt.Errorf("mock Query: 'q' must be a pointer, got %T", q)
		if m.T != nil {
			m.T.Errorf("%s", err)
		}
		return err
	}

	respBytes, err := json.Marshal(resp)
	if err != nil {
		if m.T != nil {
			m.T.Fatalf("mock Query: failed to marshal mock response: %v", err)
		}
		return fmt.Errorf("mock Query: failed to marshal mock response: %w", err)
	}

	// Reset q so fields absent from this page do not leak from the previous one.
	v := reflect.ValueOf(q).Elem()
	v.Set(reflect.Zero(v.Type()))

	if err := json.Unmarshal(respBytes, q); err != nil {
		if m.T != nil {
			m.T.Fatalf("mock Query: failed to unmarshal mock response into query struct: %v", err)
		}
		return fmt.Errorf("mock Query: failed to unmarshal mock response into query struct: %w", err)
	}
	return nil
}

func (m *MockGitHubV4Client) SetResponse(resp interface{}) {
	m.ResponseToReturn = resp
	m.ErrorToReturn = nil
}

func (m *MockGitHubV4Client) SetResponses(resps ...interface{}) {
	m.Responses = resps
	m.ErrorToReturn = nil
}

func (m *MockGitHubV4Client) SetError(err error) {
	m.ErrorToReturn = err
	m.ResponseToReturn = nil
	m.Responses = nil
}

func (m *MockGitHubV4Client) Reset() {
	m.ExpectedVariables = nil
	m.ResponseToReturn = nil
	m.Responses = nil
	m.ErrorToReturn = nil
	m.QueryCallCount = 0
	m.Variables = nil
}
