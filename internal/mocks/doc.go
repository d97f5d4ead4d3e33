// Package mocks provides centralized mock implementations for testing.
//
// Each mock is a struct with one function field per interface method. Unset
// functions fall back to the default return values on the struct, so a test
// only wires the behaviour it cares about:
//
//	cards := &mocks.MockCardStore{
//	    GetFn: func(ctx context.Context, userID, cardID uuid.UUID) (*domain.Card, error) {
//	        return nil, store.ErrCardNotFound
//	    },
//	}
//
// Mocks record the calls they receive where tests need to assert that a
// method was, or was not, invoked.
package mocks
