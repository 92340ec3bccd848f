package types

import "encoding/binary"

const (
	// ModuleName defines the module name, also used as the error codespace.
	ModuleName = "disorder"

	// ProgramVersion is recorded by the initialize instruction.
	ProgramVersion = "disorderd-v1"
)

// Ledger key prefixes.
var (
	// ProgramInfoKey holds the record written by the initialize instruction.
	ProgramInfoKey = []byte("program_info")
	// SequenceKey holds the last committed ledger sequence number.
	SequenceKey = []byte("seq")
	// RecordKeyPrefix prefixes every committed instruction record.
	RecordKeyPrefix = []byte("rec/")
)

// RecordKey returns the ledger key of the record with the given sequence number.
func RecordKey(seq uint64) []byte {
	key := make([]byte, 0, len(RecordKeyPrefix)+8)
	key = append(key, RecordKeyPrefix...)
	return binary.BigEndian.AppendUint64(key, seq)
}
