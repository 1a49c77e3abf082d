package api

import "context"

type contextKey string

const operatorContextKey contextKey = "operator"

// OperatorFromContext returns the masked admin key that authenticated the request
func OperatorFromContext(ctx context.Context) string {
	operator, _ := ctx.Value(operatorContextKey).(string)
	return operator
}

// ContextWithOperator records the authenticated operator on ctx
func ContextWithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, operatorContextKey, operator)
}
