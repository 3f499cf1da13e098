// Package verifier dispatches an emitted SMT-Lib query to a remote
// verification backend over gRPC, using a dynamically parsed .proto
// descriptor rather than generated stubs — SPEC_FULL.md's CLI/env
// section calls for "optional remote verifier dispatch via grpc and
// jhump/protoreflect dynamic dispatch", since the compiler core
// (spec.md §1 Non-goals: "this compiler never executes a network or
// runs a solver itself") must stay ignorant of whichever concrete
// solver a deployment points it at.
//
// Grounded on internal/evaluator/builtins_grpc.go: `protoparse.Parser`
// loads a .proto file into a `desc.FileDescriptor` once, method lookup
// walks `FindService`/`FindMethodByName` over the loaded descriptors,
// and a request/response pair is built and invoked as
// `dynamic.Message` values through `grpc.ClientConn.Invoke` — the same
// three-step shape (load descriptor once, resolve method by path,
// invoke with dynamic messages) this package reuses for a single fixed
// method rather than the teacher's general-purpose builtin surface.
package verifier

import (
	"context"
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Status is the verifier's verdict for one property (spec.md has no
// notion of "running" a solver; this is purely the client-side contract
// with whatever remote service answers one).
type Status int

const (
	StatusUnknown Status = iota
	StatusSat
	StatusUnsat
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSat:
		return "sat"
	case StatusUnsat:
		return "unsat"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is the verifier's answer for one compiled property.
type Result struct {
	Status         Status
	Counterexample string
	Message        string
}

// Client is a narrow interface over a remote verifier so
// compiler-core code (internal/vnnlib, internal/smtlib) never imports
// this package: only a driver (cmd/vehicle) that has chosen to dispatch
// remotely depends on it.
type Client interface {
	Verify(ctx context.Context, propertyID, script string, metaNetwork []string) (Result, error)
	Close() error
}

// Config names the service this package dispatches to: one method,
// taking the property ID, its SMT-Lib script, and the ordered
// meta-network list, and returning status/counterexample/message
// fields by name.
type Config struct {
	Target      string // e.g. "localhost:50505"
	ProtoFile   string // .proto defining the verifier service
	ImportPath  string
	ServiceMethod string // "package.Service/Method"
}

type grpcClient struct {
	conn   *grpc.ClientConn
	method *desc.MethodDescriptor
}

// Dial loads cfg.ProtoFile, resolves cfg.ServiceMethod within it, and
// opens an insecure gRPC connection to cfg.Target — matching
// builtinGrpcConnect's insecure.NewCredentials() default, since this
// compiler has no notion of a certificate store of its own (deployments
// needing TLS front the connection with their own proxy).
func Dial(cfg Config) (Client, error) {
	parser := protoparse.Parser{ImportPaths: []string{cfg.ImportPath}}
	fds, err := parser.ParseFiles(cfg.ProtoFile)
	if err != nil {
		return nil, fmt.Errorf("parsing verifier proto %q: %w", cfg.ProtoFile, err)
	}

	method, err := findMethod(fds, cfg.ServiceMethod)
	if err != nil {
		return nil, err
	}

	conn, err := grpc.NewClient(cfg.Target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dialing verifier %q: %w", cfg.Target, err)
	}

	return &grpcClient{conn: conn, method: method}, nil
}

func findMethod(fds []*desc.FileDescriptor, path string) (*desc.MethodDescriptor, error) {
	var serviceName, methodName string
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			serviceName, methodName = path[:i], path[i+1:]
			break
		}
	}
	if serviceName == "" || methodName == "" {
		return nil, fmt.Errorf("invalid verifier method path %q, expected 'package.Service/Method'", path)
	}
	for _, fd := range fds {
		svc := fd.FindService(serviceName)
		if svc == nil {
			continue
		}
		if m := svc.FindMethodByName(methodName); m != nil {
			return m, nil
		}
	}
	return nil, fmt.Errorf("method %q not found in parsed proto descriptors", path)
}

func (c *grpcClient) Close() error { return c.conn.Close() }

// Verify builds a dynamic request message with fields `property_id`,
// `smtlib`, and `networks`, invokes the configured method, and reads
// back `status`/`counterexample`/`message` fields from the dynamic
// response.
func (c *grpcClient) Verify(ctx context.Context, propertyID, script string, metaNetwork []string) (Result, error) {
	req := dynamic.NewMessage(c.method.GetInputType())
	if fd := req.GetMessageDescriptor().FindFieldByName("property_id"); fd != nil {
		req.SetField(fd, propertyID)
	}
	if fd := req.GetMessageDescriptor().FindFieldByName("smtlib"); fd != nil {
		req.SetField(fd, script)
	}
	if fd := req.GetMessageDescriptor().FindFieldByName("networks"); fd != nil {
		nets := make([]interface{}, len(metaNetwork))
		for i, n := range metaNetwork {
			nets[i] = n
		}
		req.SetField(fd, nets)
	}

	resp := dynamic.NewMessage(c.method.GetOutputType())
	methodPath := "/" + c.method.GetService().GetFullyQualifiedName() + "/" + c.method.GetName()
	if err := c.conn.Invoke(ctx, methodPath, req, resp); err != nil {
		return Result{}, fmt.Errorf("invoking verifier: %w", err)
	}

	var out Result
	if fd := resp.GetMessageDescriptor().FindFieldByName("status"); fd != nil {
		if s, ok := resp.GetField(fd).(string); ok {
			out.Status = parseStatus(s)
		}
	}
	if fd := resp.GetMessageDescriptor().FindFieldByName("counterexample"); fd != nil {
		if s, ok := resp.GetField(fd).(string); ok {
			out.Counterexample = s
		}
	}
	if fd := resp.GetMessageDescriptor().FindFieldByName("message"); fd != nil {
		if s, ok := resp.GetField(fd).(string); ok {
			out.Message = s
		}
	}
	return out, nil
}

func parseStatus(s string) Status {
	switch s {
	case "sat":
		return StatusSat
	case "unsat":
		return StatusUnsat
	case "error":
		return StatusError
	default:
		return StatusUnknown
	}
}
