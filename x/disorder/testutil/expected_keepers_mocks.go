package testutil

import (
	"reflect"

	"github.com/golang/mock/gomock"

	"github.com/nyxanic/disorder/x/disorder/types"
)

type MockProofVerifierRecorder struct {
	mock *MockProofVerifier
}

type MockProofVerifier struct {
	ctrl     *gomock.Controller
	recorder *MockProofVerifierRecorder
}

var _ types.ProofVerifier = &MockProofVerifier{}

func NewMockProofVerifier(ctrl *gomock.Controller) *MockProofVerifier {
	mock := &MockProofVerifier{ctrl: ctrl}
	mock.recorder = &MockProofVerifierRecorder{mock: mock}
	return mock
}

func (m *MockProofVerifier) EXPECT() *MockProofVerifierRecorder {
	return m.recorder
}

func (m *MockProofVerifier) VerifyEnvelope(envelope []byte, meter types.ComputeMeter) types.VerificationResult {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "VerifyEnvelope", envelope, meter)
	ret0, _ := ret[0].(types.VerificationResult)
	return ret0
}

func (mr *MockProofVerifierRecorder) VerifyEnvelope(envelope, meter any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "VerifyEnvelope", reflect.TypeOf((*MockProofVerifier)(nil).VerifyEnvelope), envelope, meter)
}

func (m *MockProofVerifier) KeyDigests() []types.KeyDigest {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "KeyDigests")
	ret0, _ := ret[0].([]types.KeyDigest)
	return ret0
}

func (mr *MockProofVerifierRecorder) KeyDigests() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "KeyDigests", reflect.TypeOf((*MockProofVerifier)(nil).KeyDigests))
}
