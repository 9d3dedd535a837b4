package cmd

import (
	"github.com/etnz/kryptos"
	"github.com/etnz/kryptos/docs"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Complete runs the shell completion of kpt when the shell asks for it, and
// exits. It returns otherwise. Install with COMP_INSTALL=1 kpt.
func Complete() {
	completion().Complete("kpt")
}

func completion() *complete.Command {
	var kinds predict.Set
	for _, k := range kryptos.Kinds() {
		kinds = append(kinds, string(k))
	}
	policies := predict.Set(kryptos.LotPolicies())
	topics, _ := docs.GetAllTopics()

	files := predict.Or(predict.Files("*.json"), predict.Files("*.jsonl"))
	jsonl := predict.Files("*.jsonl")

	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"config": predict.Files("*.yaml"),
			"v":      predict.Nothing,
		},
		Sub: map[string]*complete.Command{
			"topic": {
				Flags: map[string]complete.Predictor{"list": predict.Nothing, "raw": predict.Nothing},
				Args:  predict.Set(append(topics, "*")),
			},
			"validate": {
				Flags: map[string]complete.Predictor{"kind": kinds},
				Args:  files,
			},
			"fmt": {
				Flags: map[string]complete.Predictor{"kind": kinds, "w": predict.Nothing, "sort": predict.Nothing},
				Args:  files,
			},
			"query": {
				Flags: map[string]complete.Predictor{"kind": kinds},
				Args:  files,
			},
			"holdings": {
				Flags: map[string]complete.Predictor{
					"ledger":     jsonl,
					"market":     predict.Files("*.json"),
					"lot-policy": policies,
					"asset":      predict.Something,
					"json":       predict.Nothing,
				},
			},
			"netvalue": {
				Flags: map[string]complete.Predictor{"w": predict.Nothing},
				Args:  files,
			},
			"nfts": {
				Flags: map[string]complete.Predictor{"spam": predict.Nothing},
				Args:  files,
			},
			"taxreport": {
				Flags: map[string]complete.Predictor{
					"ledger":     jsonl,
					"lot-policy": policies,
					"o":          predict.Files("*.xlsx"),
					"year":       predict.Something,
				},
			},
			"store": {
				Sub: map[string]*complete.Command{
					"put": {Args: files},
					"get": {Args: predict.Something},
				},
			},
		},
	}
}
