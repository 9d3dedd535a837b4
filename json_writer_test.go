package kryptos

import (
	"testing"
)

func TestJsonObjectWriter(t *testing.T) {
	var nilQuantity *Quantity
	var nilTags []string
	half := MustQ("0.5")

	tests := []struct {
		name  string
		write func(w *jsonObjectWriter)
		want  string
	}{
		{
			name:  "empty object",
			write: func(w *jsonObjectWriter) {},
			want:  `{}`,
		},
		{
			name: "key order is write order",
			write: func(w *jsonObjectWriter) {
				w.Append("symbol", "ETH").Append("quantity", MustQ("1.25")).Append("chainId", 1)
			},
			want: `{"symbol":"ETH","quantity":"1.25","chainId":1}`,
		},
		{
			name: "optional skips zero values",
			write: func(w *jsonObjectWriter) {
				w.Append("isContract", false)
				w.Optional("alias", "")
				w.Optional("costbasis", nilQuantity)
				w.Optional("value", &half)
				w.Optional("label", "swap")
			},
			want: `{"isContract":false,"value":"0.5","label":"swap"}`,
		},
		{
			name: "nil pointer appended as null",
			write: func(w *jsonObjectWriter) {
				w.Append("lastSale", nilQuantity)
			},
			want: `{"lastSale":null}`,
		},
		{
			name: "arrays are never null",
			write: func(w *jsonObjectWriter) {
				w.Array("tags", nilTags)
				w.Array("chains", []string{"ethereum"})
				w.Optional("notes", []string{})
			},
			want: `{"tags":[],"chains":["ethereum"],"notes":[]}`,
		},
		{
			name: "embed raw object",
			write: func(w *jsonObjectWriter) {
				w.Append("category", "lending")
				w.Embed([]byte(` {"apy":"4.2"} `))
				w.Embed([]byte(`{}`))
				w.Append("healthFactor", 1.8)
			},
			want: `{"category":"lending","apy":"4.2","healthFactor":1.8}`,
		},
		{
			name: "embed from value",
			write: func(w *jsonObjectWriter) {
				base := struct {
					Platform string `json:"platform"`
					URL      string `json:"url"`
				}{"x", "https://x.com/punks"}
				w.Append("name", "CryptoPunks")
				w.EmbedFrom(base)
			},
			want: `{"name":"CryptoPunks","platform":"x","url":"https://x.com/punks"}`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var w jsonObjectWriter
			tc.write(&w)
			got, err := w.MarshalJSON()
			if err != nil {
				t.Fatalf("MarshalJSON() unexpected error: %v", err)
			}
			if string(got) != tc.want {
				t.Errorf("MarshalJSON() = %s, want %s", got, tc.want)
			}
		})
	}

	t.Run("marshal error is kept", func(t *testing.T) {
		var w jsonObjectWriter
		w.Append("bad", func() {})
		w.Append("symbol", "ETH")
		if _, err := w.MarshalJSON(); err == nil {
			t.Error("MarshalJSON() succeeded, want an error for an unencodable value")
		}
	})
}
