package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestUserOperationJSONFieldNames(t *testing.T) {
	op := UserOperation{
		CallGasLimit:         30000,
		VerificationGasLimit: 30000,
		PreVerificationGas:   50000,
		MaxFeePerGas:         2.0,
		MaxPriorityFeePerGas: 0.5,
		BundleSize:           10,
		CallData:             DefaultCallData,
	}

	data, err := json.Marshal(op)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	for _, field := range []string{
		`"callGasLimit":30000`,
		`"verificationGasLimit":30000`,
		`"preVerificationGas":50000`,
		`"maxFeePerGas":2`,
		`"maxPriorityFeePerGas":0.5`,
		`"bundleSize":10`,
		`"callData":"0xa9059cbb`,
	} {
		if !strings.Contains(string(data), field) {
			t.Errorf("expected %s in %s", field, data)
		}
	}
}

func TestUserOperationRPC(t *testing.T) {
	op := UserOperation{
		CallGasLimit:         30000,
		VerificationGasLimit: 20000,
		PreVerificationGas:   21000,
		MaxFeePerGas:         2.0,
		MaxPriorityFeePerGas: 0.5,
		CallData:             "0x",
	}
	rpc := op.RPC()

	want := map[string]string{
		"callGasLimit":         "0x7530",
		"verificationGasLimit": "0x4e20",
		"preVerificationGas":   "0x5208",
		"maxFeePerGas":         "0x77359400", // 2 gwei
		"maxPriorityFeePerGas": "0x1dcd6500", // 0.5 gwei
		"callData":             "0x",
	}
	for k, v := range want {
		if rpc[k] != v {
			t.Errorf("%s: expected %s, got %s", k, v, rpc[k])
		}
	}
}

func TestGweiToWeiEdgeCases(t *testing.T) {
	if got := GweiToWei(-1).Sign(); got != 0 {
		t.Errorf("negative gwei should convert to zero wei")
	}
	if got := GweiToWei(1).String(); got != "1000000000" {
		t.Errorf("expected 1e9 wei, got %s", got)
	}
}

func TestGasOutputJSON(t *testing.T) {
	valid, err := json.Marshal(GasOutput{Valid: true, Gas: 120000, LatencyMs: 950})
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if string(valid) != `{"gas":120000,"latency":950}` {
		t.Fatalf("unexpected valid encoding: %s", valid)
	}

	invalid, err := json.Marshal(GasOutput{Gas: 99})
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if string(invalid) != `{"gas":"invalid","latency":0}` {
		t.Fatalf("unexpected invalid encoding: %s", invalid)
	}

	var decoded GasOutput
	if err := json.Unmarshal(valid, &decoded); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if !decoded.Valid || decoded.Gas != 120000 || decoded.LatencyMs != 950 {
		t.Fatalf("unexpected decoded value: %+v", decoded)
	}
	if err := json.Unmarshal(invalid, &decoded); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if decoded.Valid {
		t.Fatalf("expected invalid gas output after decoding %s", invalid)
	}
}
