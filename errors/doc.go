/*
Package errors provides the semantic error types used across tablekit.

Every typed error matches a sentinel through errors.Is, so callers can test
the category without caring about the concrete type:

	var (
	    ErrNotFound        = errors.New("not found")
	    ErrAlreadyExists   = errors.New("already exists")
	    ErrInvalidInput    = errors.New("invalid argument")
	    ErrConditionFailed = errors.New("precondition failed")
	    ErrNoKeyMap        = errors.New("no key map registered for type")
	    ErrParse           = errors.New("cannot parse stored value")
	)

Usage:

	order, err := orders.RetrieveEntity(ctx, "customer-1", "order-9")
	if err != nil {
	    if errors.IsParseError(err) {
	        // a stored column no longer matches the Go field type
	    }
	    return err
	}

	if err := orders.ReplaceEntity(ctx, order); errors.IsConditionFailed(err) {
	    // somebody else updated the row since it was read
	}

ValidationError is raised synchronously, before any storage call, for nil or
empty required arguments. ParseError wraps the underlying strconv, time or
decimal failure and is never retried.
*/
package errors
