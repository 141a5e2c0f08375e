package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/sharelyst/pkg/api"
)

// SettlementServiceName is the fully-qualified name of the SettlementService service.
const SettlementServiceName = "sharelyst.v1.SettlementService"

// Procedure paths of the SettlementService RPCs.
const (
	SettlementServiceComputeSettlementProcedure = "/sharelyst.v1.SettlementService/ComputeSettlement"
	SettlementServiceSettleGroupProcedure       = "/sharelyst.v1.SettlementService/SettleGroup"
)

// SettlementServiceHandler serves settlement computation and actions.
type SettlementServiceHandler interface {
	ComputeSettlement(context.Context, *connect.Request[api.ComputeSettlementRequest]) (*connect.Response[api.ComputeSettlementResponse], error)
	SettleGroup(context.Context, *connect.Request[api.SettleGroupRequest]) (*connect.Response[api.SettleGroupResponse], error)
}

// NewSettlementServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewSettlementServiceHandler(svc SettlementServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	computeSettlementHandler := connect.NewUnaryHandler(SettlementServiceComputeSettlementProcedure, svc.ComputeSettlement, opts...)
	settleGroupHandler := connect.NewUnaryHandler(SettlementServiceSettleGroupProcedure, svc.SettleGroup, opts...)
	return "/" + SettlementServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case SettlementServiceComputeSettlementProcedure:
			computeSettlementHandler.ServeHTTP(w, r)
		case SettlementServiceSettleGroupProcedure:
			settleGroupHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// SettlementServiceClient is a client for the SettlementService service.
type SettlementServiceClient interface {
	ComputeSettlement(context.Context, *connect.Request[api.ComputeSettlementRequest]) (*connect.Response[api.ComputeSettlementResponse], error)
	SettleGroup(context.Context, *connect.Request[api.SettleGroupRequest]) (*connect.Response[api.SettleGroupResponse], error)
}

// NewSettlementServiceClient constructs a client for the SettlementService service. baseURL is
// the server's scheme and host, e.g. http://localhost:8080.
func NewSettlementServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) SettlementServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &settlementServiceClient{
		computeSettlement: connect.NewClient[api.ComputeSettlementRequest, api.ComputeSettlementResponse](httpClient, baseURL+SettlementServiceComputeSettlementProcedure, opts...),
		settleGroup:       connect.NewClient[api.SettleGroupRequest, api.SettleGroupResponse](httpClient, baseURL+SettlementServiceSettleGroupProcedure, opts...),
	}
}

type settlementServiceClient struct {
	computeSettlement *connect.Client[api.ComputeSettlementRequest, api.ComputeSettlementResponse]
	settleGroup       *connect.Client[api.SettleGroupRequest, api.SettleGroupResponse]
}

func (c *settlementServiceClient) ComputeSettlement(ctx context.Context, req *connect.Request[api.ComputeSettlementRequest]) (*connect.Response[api.ComputeSettlementResponse], error) {
	return c.computeSettlement.CallUnary(ctx, req)
}

func (c *settlementServiceClient) SettleGroup(ctx context.Context, req *connect.Request[api.SettleGroupRequest]) (*connect.Response[api.SettleGroupResponse], error) {
	return c.settleGroup.CallUnary(ctx, req)
}
