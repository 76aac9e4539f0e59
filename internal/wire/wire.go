// Package wire defines the messages exchanged between the CryptoEx client
// and server. The gRPC service carries them as google.protobuf.Struct
// values and the HTTP API as plain JSON; both use the field names declared
// here. Decimal amounts travel as strings.
package wire

import (
	"encoding/json"

	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "cryptoex.v1.Exchange"

const (
	MethodPing              = "Ping"
	MethodSignUp            = "SignUp"
	MethodSignIn            = "SignIn"
	MethodRefreshToken      = "RefreshToken"
	MethodSession           = "Session"
	MethodVerifyPin         = "VerifyPin"
	MethodSignOut           = "SignOut"
	MethodMarket            = "Market"
	MethodRefreshMarket     = "RefreshMarket"
	MethodWallets           = "Wallets"
	MethodPortfolio         = "Portfolio"
	MethodDeposit           = "Deposit"
	MethodWithdraw          = "Withdraw"
	MethodBuy               = "Buy"
	MethodSell              = "Sell"
	MethodHistory           = "History"
	MethodProfile           = "Profile"
	MethodUpdateDisplayName = "UpdateDisplayName"
	MethodChangePin         = "ChangePin"
	MethodExportStatement   = "ExportStatement"
)

// FullMethod returns the gRPC path of a method, e.g. /cryptoex.v1.Exchange/Ping.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// Encode converts a message into a Struct through its JSON form.
func Encode(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := &structpb.Struct{}
	if err := s.UnmarshalJSON(b); err != nil {
		return nil, err
	}
	return s, nil
}

// Decode fills v from a Struct. A nil Struct leaves v untouched.
func Decode(s *structpb.Struct, v any) error {
	if s == nil {
		return nil
	}
	b, err := s.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
