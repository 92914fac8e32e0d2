package builtin

import (
	"encoding/json"
	"fmt"
	"log"

	"qbank/internal/config"
	"qbank/internal/schema"
	"qbank/internal/transformer"
)

// rejectLogLimit caps per-run reject log lines from the validate transform.
const rejectLogLimit = 3

// DefaultChain is the stage order for a question export when the pipeline
// config lists no transforms: reconcile columns, drop unsupported question
// styles, default the fields, batch the ungrouped rows.
func DefaultChain() transformer.Chain {
	return transformer.Chain{Reconcile{}, DropTypes{}, Fields{}, Batches{}}
}

// FromConfig builds the transform chain from pipeline configuration. An
// empty list yields DefaultChain. A non-empty list is taken literally, so a
// config that wants the standard stages plus extras must name the stages
// too.
func FromConfig(ts []config.Transform) (transformer.Chain, error) {
	if len(ts) == 0 {
		return DefaultChain(), nil
	}
	var c transformer.Chain
	for _, t := range ts {
		switch t.Kind {
		case "reconcile":
			c = append(c, Reconcile{})
		case "droptypes":
			c = append(c, DropTypes{Patterns: t.Options.StringSlice("patterns")})
		case "fields":
			c = append(c, Fields{})
		case "batches":
			c = append(c, Batches{Size: t.Options.Int("size", DefaultBatchSize)})
		case "normalize":
			c = append(c, Normalize{Fields: t.Options.StringSlice("fields")})
		case "striphtml":
			c = append(c, StripHTML{Fields: t.Options.StringSlice("fields")})
		case "dedupe":
			keys := t.Options.StringSlice("keys")
			if len(keys) == 0 {
				keys = []string{schema.FieldQuestion}
			}
			c = append(c, DeDup{
				Keys:         keys,
				Policy:       t.Options.String("policy", "keep-first"),
				PreferFields: t.Options.StringSlice("prefer_fields"),
			})
		case "require":
			c = append(c, Require{Fields: t.Options.StringSlice("fields")})
		case "validate":
			contract, err := decodeContract(t.Options)
			if err != nil {
				return nil, err
			}
			var rejected int
			c = append(c, &Validate{
				Contract: contract,
				Reject: func(r RejectedRow) {
					rejected++
					if rejected <= rejectLogLimit {
						log.Printf("validate reject: %s | raw=%v", r.Reason, r.Raw)
					}
					if rejected == rejectLogLimit+1 {
						log.Printf("... additional rejections suppressed ...")
					}
				},
			})
		default:
			return nil, fmt.Errorf("unsupported transform.kind=%s", t.Kind)
		}
	}
	return c, nil
}

// decodeContract reads an inline contract from options; absent means the
// default question-row contract.
func decodeContract(o config.Options) (Contract, error) {
	raw := o.Any("contract")
	if raw == nil {
		return DefaultQuestionContract(), nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return Contract{}, fmt.Errorf("validate.options.contract: %w", err)
	}
	var c Contract
	if err := json.Unmarshal(b, &c); err != nil {
		return Contract{}, fmt.Errorf("validate.options.contract: %w", err)
	}
	if c.Name == "" {
		c.Name = "inline"
	}
	return c, nil
}
