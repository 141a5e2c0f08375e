package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/sharelyst/pkg/api"
)

// TransactionServiceName is the fully-qualified name of the TransactionService service.
const TransactionServiceName = "sharelyst.v1.TransactionService"

// Procedure paths of the TransactionService RPCs.
const (
	TransactionServiceCreateTransactionProcedure = "/sharelyst.v1.TransactionService/CreateTransaction"
	TransactionServiceListTransactionsProcedure  = "/sharelyst.v1.TransactionService/ListTransactions"
	TransactionServiceGetTotalProcedure          = "/sharelyst.v1.TransactionService/GetTotal"
)

// TransactionServiceHandler serves expense recording.
type TransactionServiceHandler interface {
	CreateTransaction(context.Context, *connect.Request[api.CreateTransactionRequest]) (*connect.Response[api.CreateTransactionResponse], error)
	ListTransactions(context.Context, *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error)
	GetTotal(context.Context, *connect.Request[api.GetTotalRequest]) (*connect.Response[api.GetTotalResponse], error)
}

// NewTransactionServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewTransactionServiceHandler(svc TransactionServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	createTransactionHandler := connect.NewUnaryHandler(TransactionServiceCreateTransactionProcedure, svc.CreateTransaction, opts...)
	listTransactionsHandler := connect.NewUnaryHandler(TransactionServiceListTransactionsProcedure, svc.ListTransactions, opts...)
	getTotalHandler := connect.NewUnaryHandler(TransactionServiceGetTotalProcedure, svc.GetTotal, opts...)
	return "/" + TransactionServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case TransactionServiceCreateTransactionProcedure:
			createTransactionHandler.ServeHTTP(w, r)
		case TransactionServiceListTransactionsProcedure:
			listTransactionsHandler.ServeHTTP(w, r)
		case TransactionServiceGetTotalProcedure:
			getTotalHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// TransactionServiceClient is a client for the TransactionService service.
type TransactionServiceClient interface {
	CreateTransaction(context.Context, *connect.Request[api.CreateTransactionRequest]) (*connect.Response[api.CreateTransactionResponse], error)
	ListTransactions(context.Context, *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error)
	GetTotal(context.Context, *connect.Request[api.GetTotalRequest]) (*connect.Response[api.GetTotalResponse], error)
}

// NewTransactionServiceClient constructs a client for the TransactionService service. baseURL is
// the server's scheme and host, e.g. http://localhost:8080.
func NewTransactionServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) TransactionServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &transactionServiceClient{
		createTransaction: connect.NewClient[api.CreateTransactionRequest, api.CreateTransactionResponse](httpClient, baseURL+TransactionServiceCreateTransactionProcedure, opts...),
		listTransactions:  connect.NewClient[api.ListTransactionsRequest, api.ListTransactionsResponse](httpClient, baseURL+TransactionServiceListTransactionsProcedure, opts...),
		getTotal:          connect.NewClient[api.GetTotalRequest, api.GetTotalResponse](httpClient, baseURL+TransactionServiceGetTotalProcedure, opts...),
	}
}

type transactionServiceClient struct {
	createTransaction *connect.Client[api.CreateTransactionRequest, api.CreateTransactionResponse]
	listTransactions  *connect.Client[api.ListTransactionsRequest, api.ListTransactionsResponse]
	getTotal          *connect.Client[api.GetTotalRequest, api.GetTotalResponse]
}

func (c *transactionServiceClient) CreateTransaction(ctx context.Context, req *connect.Request[api.CreateTransactionRequest]) (*connect.Response[api.CreateTransactionResponse], error) {
	return c.createTransaction.CallUnary(ctx, req)
}

func (c *transactionServiceClient) ListTransactions(ctx context.Context, req *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error) {
	return c.listTransactions.CallUnary(ctx, req)
}

func (c *transactionServiceClient) GetTotal(ctx context.Context, req *connect.Request[api.GetTotalRequest]) (*connect.Response[api.GetTotalResponse], error) {
	return c.getTotal.CallUnary(ctx, req)
}
