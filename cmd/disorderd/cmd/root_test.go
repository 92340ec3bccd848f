package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyxanic/disorder/gateway/config"
	"github.com/nyxanic/disorder/x/disorder/cipher"
	"github.com/nyxanic/disorder/x/disorder/types"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.LedgerPath = filepath.Join(dir, "ledger")
	cfg.LogLevel = "error"
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestEncryptDecryptCommands(t *testing.T) {
	cfgPath := writeTestConfig(t)
	key := types.Key{0xDEADBEEF, 0xCAFEBABE}
	iv := types.IV{0x11112222, 0x33334444}
	pt := types.Block{100, 200}
	ct := cipher.Encrypt(key, iv, pt)

	out, err := execute(t, "encrypt", "--config", cfgPath,
		"--key", "0xdeadbeef,0xcafebabe", "--iv", "0x11112222,0x33334444", "--input", "100,200")
	require.NoError(t, err)
	var enc struct {
		Output    []string `json:"output"`
		Committed bool     `json:"committed"`
		LedgerSeq uint64   `json:"ledger_seq"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &enc))
	require.True(t, enc.Committed)
	require.Equal(t, uint64(1), enc.LedgerSeq)

	words, err := types.ParseWords(enc.Output)
	require.NoError(t, err)
	require.Equal(t, ct[:], words)

	out, err = execute(t, "decrypt", "--config", cfgPath, "--simulate",
		"--key", "0xdeadbeef,0xcafebabe", "--iv", "0x11112222,0x33334444", "--input", enc.Output[0]+","+enc.Output[1])
	require.NoError(t, err)
	var dec struct {
		Output    []string `json:"output"`
		Committed bool     `json:"committed"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &dec))
	require.False(t, dec.Committed)
	words, err = types.ParseWords(dec.Output)
	require.NoError(t, err)
	require.Equal(t, pt[:], words)

	out, err = execute(t, "ledger", "--config", cfgPath)
	require.NoError(t, err)
	var recs []types.Record
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 1)
	require.Equal(t, types.InstructionEncryptSim, recs[0].Instruction)

	_, err = execute(t, "ledger", "2", "--config", cfgPath)
	require.ErrorIs(t, err, types.ErrRecordNotFound)
}

func TestEncryptCommandRejectsShortKey(t *testing.T) {
	cfgPath := writeTestConfig(t)
	_, err := execute(t, "encrypt", "--config", cfgPath, "--key", "1", "--iv", "1,2", "--input", "1,2")
	require.ErrorIs(t, err, types.ErrInvalidInputSize)
}

func TestVerifyCommandWithoutKey(t *testing.T) {
	cfgPath := writeTestConfig(t)
	proof := filepath.Join(t.TempDir(), "proof.bin")
	require.NoError(t, os.WriteFile(proof, []byte("not a proof"), 0o600))

	_, err := execute(t, "verify", proof, "--config", cfgPath)
	require.ErrorIs(t, err, types.ErrNotInitialized)
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	_, err := execute(t, "init", "-o", path)
	require.NoError(t, err)

	cfg, err := config.GetConfig(path)
	require.NoError(t, err)
	require.Equal(t, config.DefaultConfig().HTTPListenAddress, cfg.HTTPListenAddress)

	_, err = execute(t, "init", "-o", path)
	require.Error(t, err)
	_, err = execute(t, "init", "-o", path, "--force")
	require.NoError(t, err)
}
