package pipeline

import (
	"github.com/abeer-rozba/vr-therapy-server/internal/crypto"
	"github.com/abeer-rozba/vr-therapy-server/internal/domain"
)

// DemoRequest exercises the cryptosystem adapter directly, bypassing the
// store. Scalar is only consulted for the multiply operation.
type DemoRequest struct {
	Operation string            `json:"operation"`
	Operands  []string          `json:"operands"`
	PublicKey *domain.PublicKey `json:"publicKey"`
	Scalar    string            `json:"scalar,omitempty"`
}

type DemoResult struct {
	Operation string                   `json:"operation"`
	Result    string                   `json:"result,omitempty"`
	Average   *domain.EncryptedAverage `json:"average,omitempty"`
}

// Demo runs one stateless homomorphic operation. Errors are ValidationError
// for a malformed request shape and CryptoError for bad operand material.
func (p *Pipeline) Demo(req DemoRequest) (*DemoResult, error) {
	if req.PublicKey == nil {
		return nil, &domain.ValidationError{Reason: "missing publicKey"}
	}
	pk, err := crypto.ParsePublicKey(*req.PublicKey)
	if err != nil {
		return nil, err
	}

	switch req.Operation {
	case "add":
		sum, err := foldAdd(pk, req.Operands)
		if err != nil {
			return nil, err
		}
		return &DemoResult{Operation: "add", Result: sum}, nil

	case "average":
		sum, err := foldAdd(pk, req.Operands)
		if err != nil {
			return nil, err
		}
		return &DemoResult{
			Operation: "average",
			Average: &domain.EncryptedAverage{
				Sum:   sum,
				Count: len(req.Operands),
			},
		}, nil

	case "multiply":
		if len(req.Operands) != 1 {
			return nil, &domain.ValidationError{Reason: "multiply requires exactly one operand"}
		}
		if req.Scalar == "" {
			return nil, &domain.ValidationError{Reason: "missing scalar"}
		}
		out, err := pk.ScalarMultiply(req.Operands[0], req.Scalar)
		if err != nil {
			return nil, err
		}
		return &DemoResult{Operation: "multiply", Result: out}, nil

	default:
		return nil, &domain.ValidationError{Reason: "unknown operation: " + req.Operation}
	}
}

func foldAdd(pk *crypto.PublicKey, operands []string) (string, error) {
	if len(operands) < 2 {
		return "", &domain.ValidationError{Reason: "at least two operands are required"}
	}
	sum := operands[0]
	for _, c := range operands[1:] {
		next, err := pk.Add(sum, c)
		if err != nil {
			return "", err
		}
		sum = next
	}
	return sum, nil
}
