package store

// Ptr returns a pointer to v. Used to mark a field as set.
func Ptr[T any](v T) *T {
	return &v
}

// mergeField copies src into *dst when src is set and differs.
func mergeField[T comparable](dst **T, src *T) bool {
	if src == nil {
		return false
	}
	if *dst != nil && **dst == *src {
		return false
	}
	v := *src
	*dst = &v
	return true
}

// Merge copies every set field of u into m and reports whether m changed.
// The key and timestamps are not touched.
func (m *Message) Merge(u *Message) bool {
	changed := false
	changed = mergeField(&m.Type, u.Type) || changed
	changed = mergeField(&m.Direction, u.Direction) || changed
	changed = mergeField(&m.GatewayAddress, u.GatewayAddress) || changed
	changed = mergeField(&m.SourceStatus, u.SourceStatus) || changed
	changed = mergeField(&m.TargetStatus, u.TargetStatus) || changed
	changed = mergeField(&m.GasPrice, u.GasPrice) || changed
	changed = mergeField(&m.GasLimit, u.GasLimit) || changed
	changed = mergeField(&m.Nonce, u.Nonce) || changed
	changed = mergeField(&m.Sender, u.Sender) || changed
	changed = mergeField(&m.Secret, u.Secret) || changed
	changed = mergeField(&m.HashLock, u.HashLock) || changed
	changed = mergeField(&m.SourceDeclarationBlockHeight, u.SourceDeclarationBlockHeight) || changed
	return changed
}

// Merge copies every set field of u into g and reports whether g changed.
func (g *Gateway) Merge(u *Gateway) bool {
	changed := false
	changed = mergeField(&g.RemoteGA, u.RemoteGA) || changed
	changed = mergeField(&g.Chain, u.Chain) || changed
	changed = mergeField(&g.GatewayType, u.GatewayType) || changed
	changed = mergeField(&g.AnchorGA, u.AnchorGA) || changed
	changed = mergeField(&g.TokenAddress, u.TokenAddress) || changed
	changed = mergeField(&g.LastRemoteGatewayProvedBlockHeight, u.LastRemoteGatewayProvedBlockHeight) || changed
	return changed
}

// Merge copies every set field of u into t and reports whether t changed.
func (t *Transaction) Merge(u *Transaction) bool {
	changed := false
	changed = mergeField(&t.FromAddress, u.FromAddress) || changed
	changed = mergeField(&t.ToAddress, u.ToAddress) || changed
	changed = mergeField(&t.EncodedData, u.EncodedData) || changed
	changed = mergeField(&t.GasPrice, u.GasPrice) || changed
	changed = mergeField(&t.Gas, u.Gas) || changed
	changed = mergeField(&t.TxHash, u.TxHash) || changed
	changed = mergeField(&t.Nonce, u.Nonce) || changed
	return changed
}

// Merge copies every set field of u into r and reports whether r changed.
func (r *Request) Merge(u *Request) bool {
	changed := false
	changed = mergeField(&r.RequestType, u.RequestType) || changed
	changed = mergeField(&r.Amount, u.Amount) || changed
	changed = mergeField(&r.Beneficiary, u.Beneficiary) || changed
	changed = mergeField(&r.GasPrice, u.GasPrice) || changed
	changed = mergeField(&r.GasLimit, u.GasLimit) || changed
	changed = mergeField(&r.Nonce, u.Nonce) || changed
	changed = mergeField(&r.Gateway, u.Gateway) || changed
	changed = mergeField(&r.Sender, u.Sender) || changed
	changed = mergeField(&r.SenderProxy, u.SenderProxy) || changed
	changed = mergeField(&r.BlockNumber, u.BlockNumber) || changed
	changed = mergeField(&r.MessageHash, u.MessageHash) || changed
	return changed
}
