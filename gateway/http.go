package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	"github.com/spf13/cast"

	"github.com/nyxanic/disorder/gateway/metrics"
	"github.com/nyxanic/disorder/x/disorder/types"
)

// Words travel as 0x-prefixed hex quantities so 64-bit values survive JSON
// clients that parse numbers as doubles.
type words []hexutil.Uint64

func (w words) uint64s() []uint64 {
	out := make([]uint64, len(w))
	for i, v := range w {
		out[i] = uint64(v)
	}
	return out
}

func wordsOf(src []uint64) words {
	out := make(words, len(src))
	for i, v := range src {
		out[i] = hexutil.Uint64(v)
	}
	return out
}

type cipherRequest struct {
	Key           words  `json:"key"`
	IV            words  `json:"iv"`
	Input         words  `json:"input"`
	Simulate      bool   `json:"simulate"`
	ComputeBudget uint64 `json:"compute_budget"`
}

type cipherResponse struct {
	Output      words  `json:"output"`
	ComputeUsed uint64 `json:"compute_used"`
	Committed   bool   `json:"committed"`
	LedgerSeq   uint64 `json:"ledger_seq,omitempty"`
}

type verifyRequest struct {
	Proof         hexutil.Bytes `json:"proof"`
	Simulate      bool          `json:"simulate"`
	ComputeBudget uint64        `json:"compute_budget"`
}

type verifyResponse struct {
	Valid       bool          `json:"valid"`
	Digest      hexutil.Bytes `json:"digest"`
	Scheme      string        `json:"scheme"`
	ComputeUsed uint64        `json:"compute_used"`
	Committed   bool          `json:"committed"`
	LedgerSeq   uint64        `json:"ledger_seq,omitempty"`
}

type recordView struct {
	Seq         uint64 `json:"seq"`
	Instruction string `json:"instruction"`
	IV          words  `json:"iv,omitempty"`
	Input       words  `json:"input,omitempty"`
	Output      words  `json:"output,omitempty"`
	ProofDigest string `json:"proof_digest,omitempty"`
	Scheme      string `json:"scheme,omitempty"`
	ComputeUsed uint64 `json:"compute_used"`
	CommittedAt string `json:"committed_at"`
}

type errorResponse struct {
	Codespace string `json:"codespace"`
	Code      uint32 `json:"code"`
	Error     string `json:"error"`
}

func newRecordView(rec types.Record) recordView {
	v := recordView{
		Seq:         rec.Seq,
		Instruction: rec.Instruction,
		ProofDigest: rec.ProofDigest,
		Scheme:      rec.Scheme,
		ComputeUsed: rec.ComputeUsed,
		CommittedAt: rec.CommittedAt.UTC().Format(time.RFC3339Nano),
	}
	if rec.IV != nil {
		v.IV = wordsOf(rec.IV[:])
	}
	if rec.Input != nil {
		v.Input = wordsOf(rec.Input[:])
	}
	if rec.Output != nil {
		v.Output = wordsOf(rec.Output[:])
	}
	return v
}

func mode(simulate bool) types.Mode {
	if simulate {
		return types.ModeSimulate
	}
	return types.ModeCommit
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		s.logger.Error().Err(err).Msg("failed to write health response")
	}
}

func (s *Service) handleInitialize(w http.ResponseWriter, r *http.Request) {
	info, err := s.program.Initialize(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

func (s *Service) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.program.ProgramInfo(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

func (s *Service) decodeCipherRequest(w http.ResponseWriter, r *http.Request) (types.CipherRequest, bool) {
	var body cipherRequest
	if err := s.decode(w, r, &body); err != nil {
		s.writeError(w, err)
		return types.CipherRequest{}, false
	}
	key, err := types.KeyFromWords(body.Key.uint64s())
	if err != nil {
		s.writeError(w, err)
		return types.CipherRequest{}, false
	}
	iv, err := types.IVFromWords(body.IV.uint64s())
	if err != nil {
		s.writeError(w, err)
		return types.CipherRequest{}, false
	}
	in, err := types.BlockFromWords(body.Input.uint64s())
	if err != nil {
		s.writeError(w, err)
		return types.CipherRequest{}, false
	}
	return types.CipherRequest{
		Key:           key,
		IV:            iv,
		Input:         in,
		Mode:          mode(body.Simulate),
		ComputeBudget: body.ComputeBudget,
	}, true
}

func (s *Service) handleEncrypt(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCipherRequest(w, r)
	if !ok {
		return
	}
	resp, err := s.program.EncryptSim(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.IncrCounter(metrics.MetricNameEncrypted)
	s.writeCipherResponse(w, resp)
}

func (s *Service) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCipherRequest(w, r)
	if !ok {
		return
	}
	resp, err := s.program.DecryptSim(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.IncrCounter(metrics.MetricNameDecrypted)
	s.writeCipherResponse(w, resp)
}

func (s *Service) writeCipherResponse(w http.ResponseWriter, resp *types.CipherResponse) {
	s.observe(resp.ComputeUsed, resp.Committed)
	s.writeJSON(w, http.StatusOK, cipherResponse{
		Output:      wordsOf(resp.Output[:]),
		ComputeUsed: resp.ComputeUsed,
		Committed:   resp.Committed,
		LedgerSeq:   resp.LedgerSeq,
	})
}

func (s *Service) handleVerify(w http.ResponseWriter, r *http.Request) {
	var body verifyRequest
	if err := s.decode(w, r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	resp, err := s.program.VerifyProof(r.Context(), types.VerifyRequest{
		Proof:         body.Proof,
		Mode:          mode(body.Simulate),
		ComputeBudget: body.ComputeBudget,
	})
	if err != nil {
		if !errors.Is(err, types.ErrComputeExhausted) {
			s.metrics.IncrCounter(metrics.MetricNameProofsRejected)
		}
		s.writeError(w, err)
		return
	}
	s.metrics.IncrCounter(metrics.MetricNameProofsAccepted)
	s.observe(resp.ComputeUsed, resp.Committed)
	s.writeJSON(w, http.StatusOK, verifyResponse{
		Valid:       true,
		Digest:      resp.Digest[:],
		Scheme:      resp.Scheme,
		ComputeUsed: resp.ComputeUsed,
		Committed:   resp.Committed,
		LedgerSeq:   resp.LedgerSeq,
	})
}

func (s *Service) handleRecord(w http.ResponseWriter, r *http.Request) {
	seq, err := cast.ToUint64E(mux.Vars(r)["seq"])
	if err != nil {
		s.writeError(w, types.ErrParse.Wrapf("seq: %v", err))
		return
	}
	rec, err := s.program.GetRecord(r.Context(), seq)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newRecordView(*rec))
}

func (s *Service) handleRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var from uint64 = 1
	var limit int
	var err error
	if v := q.Get("from"); v != "" {
		if from, err = cast.ToUint64E(v); err != nil {
			s.writeError(w, types.ErrParse.Wrapf("from: %v", err))
			return
		}
	}
	if v := q.Get("limit"); v != "" {
		if limit, err = cast.ToIntE(v); err != nil {
			s.writeError(w, types.ErrParse.Wrapf("limit: %v", err))
			return
		}
	}
	recs, err := s.program.Records(r.Context(), from, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]recordView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, newRecordView(rec))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Service) observe(used uint64, committed bool) {
	s.metrics.Observe(metrics.MetricNameComputeUsed, float64(used))
	if committed {
		s.metrics.IncrCounter(metrics.MetricNameLedgerCommits)
	}
}

func (s *Service) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return types.ErrParse.Wrapf("request body: %v", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return types.ErrParse.Wrap("request body: trailing data")
	}
	return nil
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Service) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, types.ErrComputeExhausted) {
		s.metrics.IncrCounter(metrics.MetricNameComputeExhausted)
	}
	status := httpStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("request failed")
	}
	codespace, code, log := errorsmod.ABCIInfo(err, false)
	s.writeJSON(w, status, errorResponse{Codespace: codespace, Code: code, Error: log})
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidInputSize),
		errors.Is(err, types.ErrParse),
		errors.Is(err, types.ErrMissingProof):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrNotInitialized):
		return http.StatusConflict
	case errors.Is(err, types.ErrVerificationFailed),
		errors.Is(err, types.ErrComputeExhausted):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Service) registerRoutes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/initialize", s.handleInitialize).Methods("POST")
	v1.HandleFunc("/info", s.handleInfo).Methods("GET")
	v1.HandleFunc("/encrypt", s.handleEncrypt).Methods("POST")
	v1.HandleFunc("/decrypt", s.handleDecrypt).Methods("POST")
	v1.HandleFunc("/verify", s.handleVerify).Methods("POST")
	v1.HandleFunc("/ledger", s.handleRecords).Methods("GET")
	v1.HandleFunc("/ledger/{seq:[0-9]+}", s.handleRecord).Methods("GET")
	return r
}
