package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pushchain/bridge-node/facilitator/config"
	"github.com/pushchain/bridge-node/facilitator/db"
	ferrors "github.com/pushchain/bridge-node/facilitator/errors"
	"github.com/pushchain/bridge-node/facilitator/store"
)

func setupRepositories(t *testing.T) *Repositories {
	t.Helper()
	database, err := db.OpenInMemoryDB(true)
	require.NoError(t, err)
	repos := NewRepositories(database, zerolog.Nop())
	t.Cleanup(func() { _ = repos.Close() })
	return repos
}

func TestAnchorRepository_StrictlyIncreasing(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	saved, err := repos.Anchor.Save(ctx, &store.Anchor{AnchorGA: "0xa", LastAnchoredBlockNumber: 100})
	require.NoError(t, err)
	assert.Equal(t, uint64(100), saved.LastAnchoredBlockNumber)

	got, err := repos.Anchor.Get(ctx, "0xa")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint64(100), got.LastAnchoredBlockNumber)

	_, err = repos.Anchor.Save(ctx, &store.Anchor{AnchorGA: "0xa", LastAnchoredBlockNumber: 100})
	require.Error(t, err)
	assert.ErrorIs(t, err, ferrors.ErrNonMonotonicUpdate)

	got, err = repos.Anchor.Get(ctx, "0xa")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), got.LastAnchoredBlockNumber)

	saved, err = repos.Anchor.Save(ctx, &store.Anchor{AnchorGA: "0xa", LastAnchoredBlockNumber: 150})
	require.NoError(t, err)
	assert.Equal(t, uint64(150), saved.LastAnchoredBlockNumber)

	got, err = repos.Anchor.Get(ctx, "0xa")
	require.NoError(t, err)
	assert.Equal(t, uint64(150), got.LastAnchoredBlockNumber)
}

func TestAnchorRepository_DecreasingUpdateInSequence(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	sequence := []uint64{10, 20, 30, 25, 40}
	var highest uint64
	for _, block := range sequence {
		_, err := repos.Anchor.Save(ctx, &store.Anchor{AnchorGA: "0xb", LastAnchoredBlockNumber: block})
		if block <= highest {
			require.ErrorIs(t, err, ferrors.ErrNonMonotonicUpdate, "block %d", block)
		} else {
			require.NoError(t, err, "block %d", block)
			highest = block
		}

		got, err := repos.Anchor.Get(ctx, "0xb")
		require.NoError(t, err)
		assert.Equal(t, highest, got.LastAnchoredBlockNumber)
	}
}

func TestAnchorRepository_Validation(t *testing.T) {
	repos := setupRepositories(t)

	_, err := repos.Anchor.Save(context.Background(), &store.Anchor{LastAnchoredBlockNumber: 1})
	require.Error(t, err)
	assert.True(t, ferrors.HasCode(err, ferrors.ErrCodeValidation))
}

func TestRepository_GetMissReturnsNil(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	msg, err := repos.Message.Get(ctx, "0xmissing")
	require.NoError(t, err)
	assert.Nil(t, msg)

	anchor, err := repos.Anchor.Get(ctx, "0xmissing")
	require.NoError(t, err)
	assert.Nil(t, anchor)

	req, err := repos.Request.GetByMessageHash(ctx, "0xmissing")
	require.NoError(t, err)
	assert.Nil(t, req)

	tx, err := repos.Transaction.Get(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, tx)

	ce, err := repos.ContractEntity.Get(ctx, "0xc", "stakeProgresseds")
	require.NoError(t, err)
	assert.Nil(t, ce)
}

func TestMessageRepository_PartialSavesMerge(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	_, err := repos.Message.Save(ctx, &store.Message{
		MessageHash: "0xm",
		Sender:      store.Ptr("0xsender"),
		Nonce:       store.Ptr(uint64(7)),
	})
	require.NoError(t, err)

	saved, err := repos.Message.Save(ctx, &store.Message{
		MessageHash: "0xm",
		Secret:      store.Ptr("0xsecret"),
	})
	require.NoError(t, err)

	for _, m := range []*store.Message{saved, mustGetMessage(t, repos, "0xm")} {
		require.NotNil(t, m.Sender)
		require.NotNil(t, m.Nonce)
		require.NotNil(t, m.Secret)
		assert.Equal(t, "0xsender", *m.Sender)
		assert.Equal(t, uint64(7), *m.Nonce)
		assert.Equal(t, "0xsecret", *m.Secret)
		assert.Equal(t, store.MessageStatusUndeclared, *m.SourceStatus)
		assert.Equal(t, store.MessageStatusUndeclared, *m.TargetStatus)
	}
}

func TestMessageRepository_RejectsStatusRegression(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	_, err := repos.Message.Save(ctx, &store.Message{
		MessageHash:  "0xm",
		SourceStatus: store.Ptr(store.MessageStatusProgressed),
	})
	require.NoError(t, err)

	for _, status := range []store.MessageStatus{store.MessageStatusUndeclared, store.MessageStatusDeclared} {
		_, err = repos.Message.Save(ctx, &store.Message{
			MessageHash:  "0xm",
			SourceStatus: store.Ptr(status),
			Secret:       store.Ptr("0xshould-not-land"),
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ferrors.ErrInvariantViolation)
	}

	m := mustGetMessage(t, repos, "0xm")
	assert.Equal(t, store.MessageStatusProgressed, *m.SourceStatus)
	assert.Nil(t, m.Secret)

	t.Run("target side", func(t *testing.T) {
		_, err := repos.Message.Save(ctx, &store.Message{
			MessageHash:  "0xm",
			TargetStatus: store.Ptr(store.MessageStatusRevocationDeclared),
		})
		require.NoError(t, err)

		_, err = repos.Message.Save(ctx, &store.Message{
			MessageHash:  "0xm",
			TargetStatus: store.Ptr(store.MessageStatusDeclared),
		})
		assert.ErrorIs(t, err, ferrors.ErrInvariantViolation)
	})

	t.Run("type is immutable", func(t *testing.T) {
		_, err := repos.Message.Save(ctx, &store.Message{MessageHash: "0xt", Type: store.Ptr(store.MessageTypeStake)})
		require.NoError(t, err)
		_, err = repos.Message.Save(ctx, &store.Message{MessageHash: "0xt", Type: store.Ptr(store.MessageTypeRedeem)})
		assert.ErrorIs(t, err, ferrors.ErrInvariantViolation)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := repos.Message.Save(ctx, &store.Message{MessageHash: "0xu", SourceStatus: store.Ptr(store.MessageStatus("bogus"))})
		assert.True(t, ferrors.HasCode(err, ferrors.ErrCodeValidation))
	})
}

func TestMessageRepository_IdempotentSave(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	var notified []store.Message
	repos.Message.Attach(ObserverFunc[store.Message](func(_ context.Context, items []*store.Message) {
		for _, m := range items {
			notified = append(notified, *m)
		}
	}))

	msg := &store.Message{
		MessageHash:    "0xm",
		Type:           store.Ptr(store.MessageTypeStake),
		Direction:      store.Ptr(store.DirectionOriginToAuxiliary),
		GatewayAddress: store.Ptr("0xgateway"),
		SourceStatus:   store.Ptr(store.MessageStatusDeclared),
		TargetStatus:   store.Ptr(store.MessageStatusUndeclared),
		GasPrice:       store.Ptr("1"),
		GasLimit:       store.Ptr("2"),
		Nonce:          store.Ptr(uint64(3)),
		Sender:         store.Ptr("0xsender"),
	}

	_, err := repos.Message.Save(ctx, msg)
	require.NoError(t, err)
	before := mustGetMessage(t, repos, "0xm")

	_, err = repos.Message.Save(ctx, msg)
	require.NoError(t, err)
	after := mustGetMessage(t, repos, "0xm")

	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt))
	require.Len(t, notified, 2)
	for _, n := range notified {
		assert.Equal(t, "0xm", n.MessageHash)
		assert.Equal(t, *before.SourceStatus, *n.SourceStatus)
		assert.Equal(t, *before.Sender, *n.Sender)
		assert.Equal(t, *before.Nonce, *n.Nonce)
		assert.Equal(t, *before.GasPrice, *n.GasPrice)
	}
}

func TestMessageRepository_CreateUniqueness(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	_, err := repos.Message.Create(ctx, &store.Message{MessageHash: "0xm"})
	require.NoError(t, err)

	_, err = repos.Message.Create(ctx, &store.Message{MessageHash: "0xm", Secret: store.Ptr("0xs")})
	assert.ErrorIs(t, err, ferrors.ErrUniquenessViolation)
	assert.Nil(t, mustGetMessage(t, repos, "0xm").Secret)
}

func TestMessageRepository_LockReleasedAfterError(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	_, err := repos.Message.Save(ctx, &store.Message{MessageHash: "0xm", SourceStatus: store.Ptr(store.MessageStatusProgressed)})
	require.NoError(t, err)

	_, err = repos.Message.Save(ctx, &store.Message{MessageHash: "0xm", SourceStatus: store.Ptr(store.MessageStatusDeclared)})
	require.Error(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := repos.Message.Save(ctx, &store.Message{MessageHash: "0xother"})
		done <- err
	}()
	require.NoError(t, <-done)
}

func TestMessageRepository_ConcurrentDistinctKeys(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	hashes := []string{"0xm1", "0xm2"}
	var wg sync.WaitGroup
	errs := make([]error, len(hashes))
	for i, h := range hashes {
		wg.Add(1)
		go func(i int, h string) {
			defer wg.Done()
			_, errs[i] = repos.Message.Save(ctx, &store.Message{
				MessageHash:  h,
				SourceStatus: store.Ptr(store.MessageStatusProgressed),
				Secret:       store.Ptr("secret-" + h),
			})
		}(i, h)
	}
	wg.Wait()

	for i, h := range hashes {
		require.NoError(t, errs[i])
		m := mustGetMessage(t, repos, h)
		assert.Equal(t, store.MessageStatusProgressed, *m.SourceStatus)
		assert.Equal(t, "secret-"+h, *m.Secret)
	}
}

func TestMessageRepository_ConcurrentSameKeyConverges(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := store.MessageStatusDeclared
			if i%2 == 0 {
				status = store.MessageStatusProgressed
			}
			// Declared after Progressed is rejected; that is expected here.
			_, _ = repos.Message.Save(ctx, &store.Message{MessageHash: "0xm", SourceStatus: store.Ptr(status)})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, store.MessageStatusProgressed, *mustGetMessage(t, repos, "0xm").SourceStatus)
}

func TestMessageRepository_GetMessagesForConfirmation(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	seed := []*store.Message{
		{MessageHash: "0x1", GatewayAddress: store.Ptr("0xg"), SourceStatus: store.Ptr(store.MessageStatusDeclared), SourceDeclarationBlockHeight: store.Ptr(uint64(10))},
		{MessageHash: "0x2", GatewayAddress: store.Ptr("0xg"), SourceStatus: store.Ptr(store.MessageStatusDeclared), SourceDeclarationBlockHeight: store.Ptr(uint64(30))},
		{MessageHash: "0x3", GatewayAddress: store.Ptr("0xg"), SourceStatus: store.Ptr(store.MessageStatusDeclared), TargetStatus: store.Ptr(store.MessageStatusDeclared), SourceDeclarationBlockHeight: store.Ptr(uint64(5))},
		{MessageHash: "0x4", GatewayAddress: store.Ptr("0xother"), SourceStatus: store.Ptr(store.MessageStatusDeclared), SourceDeclarationBlockHeight: store.Ptr(uint64(5))},
	}
	for _, m := range seed {
		_, err := repos.Message.Save(ctx, m)
		require.NoError(t, err)
	}

	msgs, err := repos.Message.GetMessagesForConfirmation(ctx, "0xg", 20)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "0x1", msgs[0].MessageHash)
}

func TestMessageRepository_FindBySenderNonce(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	_, err := repos.Message.Save(ctx, &store.Message{
		MessageHash:    "0x1",
		GatewayAddress: store.Ptr("0xg"),
		Sender:         store.Ptr("0xproxy"),
		Nonce:          store.Ptr(uint64(7)),
	})
	require.NoError(t, err)

	msg, err := repos.Message.FindBySenderNonce(ctx, "0xg", "0xproxy", 7)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "0x1", msg.MessageHash)

	for _, miss := range []struct {
		gateway, sender string
		nonce           uint64
	}{
		{"0xg", "0xproxy", 8},
		{"0xother", "0xproxy", 7},
		{"0xg", "0xsomeone", 7},
	} {
		msg, err := repos.Message.FindBySenderNonce(ctx, miss.gateway, miss.sender, miss.nonce)
		require.NoError(t, err)
		assert.Nil(t, msg)
	}
}

func TestMessageRepository_ApplySeesStoredState(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	var seen []*store.Message
	build := func(existing *store.Message) *store.Message {
		seen = append(seen, existing)
		update := &store.Message{
			MessageHash:    "0xm",
			GatewayAddress: store.Ptr("0xg"),
			Sender:         store.Ptr("0xs"),
			Nonce:          store.Ptr(uint64(1)),
		}
		if store.StatusOrUndeclared(statusOf(existing)).IsForward(store.MessageStatusDeclared) {
			update.SourceStatus = store.Ptr(store.MessageStatusDeclared)
		}
		return update
	}

	_, err := repos.Message.Apply(ctx, "0xm", build)
	require.NoError(t, err)
	_, err = repos.Message.Save(ctx, &store.Message{MessageHash: "0xm", SourceStatus: store.Ptr(store.MessageStatusProgressed)})
	require.NoError(t, err)
	_, err = repos.Message.Apply(ctx, "0xm", build)
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Nil(t, seen[0])
	assert.Equal(t, store.MessageStatusProgressed, *seen[1].SourceStatus)

	found, err := repos.Message.FindBySenderNonce(ctx, "0xg", "0xs", 1)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, store.MessageStatusProgressed, *found.SourceStatus)

	_, err = repos.Message.Apply(ctx, "0xm", func(*store.Message) *store.Message {
		return &store.Message{MessageHash: "0xother"}
	})
	assert.True(t, ferrors.HasCode(err, ferrors.ErrCodeValidation))
}

func statusOf(m *store.Message) *store.MessageStatus {
	if m == nil {
		return nil
	}
	return m.SourceStatus
}

func TestGatewayRepository_ProvedHeight(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	_, err := repos.Gateway.Save(ctx, &store.Gateway{GatewayGA: "0xg", Chain: store.Ptr("1")})
	require.NoError(t, err)

	saved, err := repos.Gateway.Save(ctx, &store.Gateway{GatewayGA: "0xg", LastRemoteGatewayProvedBlockHeight: store.Ptr(uint64(50))})
	require.NoError(t, err)
	assert.Equal(t, "1", *saved.Chain)
	assert.Equal(t, uint64(50), *saved.LastRemoteGatewayProvedBlockHeight)

	_, err = repos.Gateway.Save(ctx, &store.Gateway{GatewayGA: "0xg", LastRemoteGatewayProvedBlockHeight: store.Ptr(uint64(50))})
	require.NoError(t, err)

	_, err = repos.Gateway.Save(ctx, &store.Gateway{GatewayGA: "0xg", LastRemoteGatewayProvedBlockHeight: store.Ptr(uint64(49))})
	assert.ErrorIs(t, err, ferrors.ErrNonMonotonicUpdate)

	got, err := repos.Gateway.Get(ctx, "0xg")
	require.NoError(t, err)
	assert.Equal(t, uint64(50), *got.LastRemoteGatewayProvedBlockHeight)
}

func TestRequestRepository_CreateTwice(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	first := &store.Request{
		RequestHash: "0xr",
		RequestType: store.Ptr(store.RequestTypeStake),
		Amount:      store.Ptr("100"),
		Beneficiary: store.Ptr("0xb1"),
		Nonce:       store.Ptr(uint64(1)),
	}
	_, err := repos.Request.Create(ctx, first)
	require.NoError(t, err)

	_, err = repos.Request.Create(ctx, &store.Request{
		RequestHash: "0xr",
		RequestType: store.Ptr(store.RequestTypeStake),
		Amount:      store.Ptr("999"),
		Beneficiary: store.Ptr("0xb2"),
		Nonce:       store.Ptr(uint64(2)),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ferrors.ErrUniquenessViolation)

	got, err := repos.Request.Get(ctx, "0xr")
	require.NoError(t, err)
	assert.Equal(t, "100", *got.Amount)
	assert.Equal(t, "0xb1", *got.Beneficiary)
	assert.Equal(t, uint64(1), *got.Nonce)
}

func TestRequestRepository_BackfillMessageHash(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	_, err := repos.Request.Create(ctx, &store.Request{
		RequestHash: "0xr",
		Gateway:     store.Ptr("0xg"),
		SenderProxy: store.Ptr("0xproxy"),
		Nonce:       store.Ptr(uint64(4)),
	})
	require.NoError(t, err)

	unlinked, err := repos.Request.FindUnlinked(ctx, "0xg", "0xproxy", 4)
	require.NoError(t, err)
	require.Len(t, unlinked, 1)

	_, err = repos.Request.Save(ctx, &store.Request{RequestHash: "0xr", MessageHash: store.Ptr("0xm")})
	require.NoError(t, err)

	got, err := repos.Request.GetByMessageHash(ctx, "0xm")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "0xr", got.RequestHash)
	assert.Equal(t, "0xproxy", *got.SenderProxy)

	unlinked, err = repos.Request.FindUnlinked(ctx, "0xg", "0xproxy", 4)
	require.NoError(t, err)
	assert.Empty(t, unlinked)
}

func TestTransactionRepository(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	first, err := repos.Transaction.Save(ctx, &store.Transaction{FromAddress: store.Ptr("0xf"), Nonce: store.Ptr(uint64(1))})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	second, err := repos.Transaction.Save(ctx, &store.Transaction{FromAddress: store.Ptr("0xf"), Nonce: store.Ptr(uint64(2))})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	next, err := repos.Transaction.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, first.ID, next.ID)

	updated, err := repos.Transaction.Save(ctx, &store.Transaction{ID: first.ID, TxHash: store.Ptr("0xhash")})
	require.NoError(t, err)
	assert.Equal(t, "0xf", *updated.FromAddress)
	assert.Equal(t, "0xhash", *updated.TxHash)

	next, err = repos.Transaction.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, next.ID)

	_, err = repos.Transaction.Save(ctx, &store.Transaction{ID: 999, TxHash: store.Ptr("0x")})
	assert.True(t, ferrors.HasCode(err, ferrors.ErrCodeValidation))
}

func TestContractEntityRepository_KeepsMax(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	for _, ts := range []uint64{10, 30, 20} {
		_, err := repos.ContractEntity.Save(ctx, &store.ContractEntity{ContractAddress: "0xc", EntityType: "stakeProgresseds", Timestamp: ts})
		require.NoError(t, err)
	}

	got, err := repos.ContractEntity.Get(ctx, "0xc", "stakeProgresseds")
	require.NoError(t, err)
	assert.Equal(t, uint64(30), got.Timestamp)
}

func TestObserversNotifiedInOrder(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	var calls []string
	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("observer-%d", i)
		repos.Anchor.Attach(ObserverFunc[store.Anchor](func(_ context.Context, items []*store.Anchor) {
			require.Len(t, items, 1)
			calls = append(calls, fmt.Sprintf("%s:%d", name, items[0].LastAnchoredBlockNumber))
		}))
	}

	_, err := repos.Anchor.Save(ctx, &store.Anchor{AnchorGA: "0xa", LastAnchoredBlockNumber: 5})
	require.NoError(t, err)
	_, err = repos.Anchor.Save(ctx, &store.Anchor{AnchorGA: "0xa", LastAnchoredBlockNumber: 1})
	require.Error(t, err)

	assert.Equal(t, []string{"observer-0:5", "observer-1:5", "observer-2:5"}, calls)
}

func TestObserverDeliveryOrder(t *testing.T) {
	t.Run("one writer is delivered in write order", func(t *testing.T) {
		repos := setupRepositories(t)
		ctx := context.Background()

		var seen []uint64
		repos.Anchor.Attach(ObserverFunc[store.Anchor](func(_ context.Context, items []*store.Anchor) {
			seen = append(seen, items[0].LastAnchoredBlockNumber)
		}))
		for _, h := range []uint64{1, 2, 3} {
			_, err := repos.Anchor.Save(ctx, &store.Anchor{AnchorGA: "0xa", LastAnchoredBlockNumber: h})
			require.NoError(t, err)
		}
		assert.Equal(t, []uint64{1, 2, 3}, seen)
	})

	t.Run("re-reading converges under concurrent writers", func(t *testing.T) {
		repos := setupRepositories(t)
		ctx := context.Background()

		var (
			mu     sync.Mutex
			latest uint64
		)
		repos.Anchor.Attach(ObserverFunc[store.Anchor](func(ctx context.Context, items []*store.Anchor) {
			mu.Lock()
			defer mu.Unlock()
			current, err := repos.Anchor.Get(ctx, items[0].AnchorGA)
			if assert.NoError(t, err) && assert.NotNil(t, current) {
				latest = current.LastAnchoredBlockNumber
			}
		}))

		var wg sync.WaitGroup
		for h := uint64(1); h <= 20; h++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repos.Anchor.Save(ctx, &store.Anchor{AnchorGA: "0xa", LastAnchoredBlockNumber: h})
				if err != nil {
					assert.ErrorIs(t, err, ferrors.ErrNonMonotonicUpdate)
				}
			}()
		}
		wg.Wait()

		stored, err := repos.Anchor.Get(ctx, "0xa")
		require.NoError(t, err)
		assert.Equal(t, stored.LastAnchoredBlockNumber, latest)
	})
}

func TestObserverMaySaveWithoutDeadlock(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	repos.Anchor.Attach(ObserverFunc[store.Anchor](func(ctx context.Context, items []*store.Anchor) {
		if items[0].AnchorGA == "0xa" {
			_, err := repos.Anchor.Save(ctx, &store.Anchor{AnchorGA: "0xmirror", LastAnchoredBlockNumber: items[0].LastAnchoredBlockNumber})
			assert.NoError(t, err)
		}
	}))

	_, err := repos.Anchor.Save(ctx, &store.Anchor{AnchorGA: "0xa", LastAnchoredBlockNumber: 9})
	require.NoError(t, err)

	mirror, err := repos.Anchor.Get(ctx, "0xmirror")
	require.NoError(t, err)
	assert.Equal(t, uint64(9), mirror.LastAnchoredBlockNumber)
}

func TestSeedGateways(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()

	gateways := []config.GatewayConfig{{
		GatewayGA:   "0xAbC0000000000000000000000000000000000001",
		RemoteGA:    "0xabc0000000000000000000000000000000000002",
		Chain:       "1405",
		GatewayType: "origin",
		AnchorGA:    "0xabc0000000000000000000000000000000000003",
	}}
	require.NoError(t, repos.SeedGateways(ctx, gateways))
	require.NoError(t, repos.SeedGateways(ctx, gateways))

	got, err := repos.Gateway.Get(ctx, "0xabc0000000000000000000000000000000000001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "1405", *got.Chain)
	assert.Nil(t, got.TokenAddress)
}

func mustGetMessage(t *testing.T, repos *Repositories, hash string) *store.Message {
	t.Helper()
	m, err := repos.Message.Get(context.Background(), hash)
	require.NoError(t, err)
	require.NotNil(t, m)
	return m
}
