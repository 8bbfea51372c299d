package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/pkg/api"
)

// ExpenseServiceName is the fully-qualified name of the ExpenseService service.
const ExpenseServiceName = "splitledger.v1.ExpenseService"

const (
	ExpenseServiceListExpensesProcedure  = "/splitledger.v1.ExpenseService/ListExpenses"
	ExpenseServiceAddExpenseProcedure    = "/splitledger.v1.ExpenseService/AddExpense"
	ExpenseServiceUpdateExpenseProcedure = "/splitledger.v1.ExpenseService/UpdateExpense"
	ExpenseServiceDeleteExpenseProcedure = "/splitledger.v1.ExpenseService/DeleteExpense"
)

// ExpenseServiceClient is a client for the splitledger.v1.ExpenseService service.
type ExpenseServiceClient interface {
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)
	AddExpense(context.Context, *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error)
	UpdateExpense(context.Context, *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error)
}

// NewExpenseServiceClient constructs a client for the splitledger.v1.ExpenseService service.
func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ExpenseServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	return &expenseServiceClient{
		listExpenses: connect.NewClient[api.ListExpensesRequest, api.ListExpensesResponse](
			httpClient, baseURL+ExpenseServiceListExpensesProcedure, clientOptions(opts),
		),
		addExpense: connect.NewClient[api.AddExpenseRequest, api.AddExpenseResponse](
			httpClient, baseURL+ExpenseServiceAddExpenseProcedure, clientOptions(opts),
		),
		updateExpense: connect.NewClient[api.UpdateExpenseRequest, api.UpdateExpenseResponse](
			httpClient, baseURL+ExpenseServiceUpdateExpenseProcedure, clientOptions(opts),
		),
		deleteExpense: connect.NewClient[api.DeleteExpenseRequest, api.DeleteExpenseResponse](
			httpClient, baseURL+ExpenseServiceDeleteExpenseProcedure, clientOptions(opts),
		),
	}
}

type expenseServiceClient struct {
	listExpenses  *connect.Client[api.ListExpensesRequest, api.ListExpensesResponse]
	addExpense    *connect.Client[api.AddExpenseRequest, api.AddExpenseResponse]
	updateExpense *connect.Client[api.UpdateExpenseRequest, api.UpdateExpenseResponse]
	deleteExpense *connect.Client[api.DeleteExpenseRequest, api.DeleteExpenseResponse]
}

func (c *expenseServiceClient) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *expenseServiceClient) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	return c.addExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	return c.updateExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

// ExpenseServiceHandler is implemented by the ExpenseService server.
type ExpenseServiceHandler interface {
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)
	AddExpense(context.Context, *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error)
	UpdateExpense(context.Context, *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error)
}

// NewExpenseServiceHandler builds an HTTP handler from the service implementation.
func NewExpenseServiceHandler(svc ExpenseServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	listExpensesHandler := connect.NewUnaryHandler(ExpenseServiceListExpensesProcedure, svc.ListExpenses, handlerOptions(opts))
	addExpenseHandler := connect.NewUnaryHandler(ExpenseServiceAddExpenseProcedure, svc.AddExpense, handlerOptions(opts))
	updateExpenseHandler := connect.NewUnaryHandler(ExpenseServiceUpdateExpenseProcedure, svc.UpdateExpense, handlerOptions(opts))
	deleteExpenseHandler := connect.NewUnaryHandler(ExpenseServiceDeleteExpenseProcedure, svc.DeleteExpense, handlerOptions(opts))

	return "/" + ExpenseServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ExpenseServiceListExpensesProcedure:
			listExpensesHandler.ServeHTTP(w, r)
		case ExpenseServiceAddExpenseProcedure:
			addExpenseHandler.ServeHTTP(w, r)
		case ExpenseServiceUpdateExpenseProcedure:
			updateExpenseHandler.ServeHTTP(w, r)
		case ExpenseServiceDeleteExpenseProcedure:
			deleteExpenseHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
