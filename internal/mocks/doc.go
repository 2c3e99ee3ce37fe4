// Package mocks provides function-field mocks of the service interfaces for
// handler and command tests.
//
// Each mock calls its XxxFn field when set and otherwise returns the default
// values stored on the struct:
//
//	tasks := &mocks.MockTaskService{
//	    ListTasksFn: func(ctx context.Context, userID uuid.UUID, q string) ([]*domain.Task, error) {
//	        return nil, store.ErrUnavailable
//	    },
//	}
package mocks
