package flow

import (
	"testing"

	"github.com/zappybot/zappy/internal/models"
	"github.com/zappybot/zappy/internal/store"
	"github.com/zappybot/zappy/internal/testutil"
)

func newTestStates(t *testing.T) (*StateManager, string) {
	t.Helper()
	st := store.NewInMemoryStore()
	thread, err := st.GetOrCreateThread("user-1")
	testutil.MustNoError(t, err, "create thread")
	return NewStateManager(st), thread.ID
}

func TestStateManagerFlowLifecycle(t *testing.T) {
	states, threadID := newTestStates(t)

	ctx, err := states.StartFlow(threadID, models.FlowTypeOrder, models.FlowData{"cart": []string{}})
	testutil.MustNoError(t, err, "start flow")
	testutil.AssertEqual(t, ctx.CurrentFlow, models.FlowTypeOrder, "flow after start")
	testutil.AssertEqual(t, ctx.CurrentStep, models.StepFlowStart, "step after start")

	err = states.UpdateStep(threadID, models.StepAskDrinks, models.FlowData{"note": "merged"})
	testutil.MustNoError(t, err, "update step")
	ctx, err = states.Current(threadID)
	testutil.MustNoError(t, err, "load context")
	testutil.AssertEqual(t, ctx.CurrentStep, models.StepAskDrinks, "step after update")
	if _, ok := ctx.FlowData["cart"]; !ok {
		t.Error("step update must merge, not replace, flow data")
	}

	err = states.EndFlow(threadID)
	testutil.MustNoError(t, err, "end flow")
	ctx, err = states.Current(threadID)
	testutil.MustNoError(t, err, "load context")
	if ctx.InFlow() || len(ctx.FlowData) != 0 {
		t.Errorf("end flow left residue: %+v", ctx)
	}
}

func TestStateManagerRejectsBadFlow(t *testing.T) {
	states, threadID := newTestStates(t)
	if _, err := states.StartFlow(threadID, models.FlowType("bogus"), nil); err == nil {
		t.Error("bogus flow type must be rejected")
	}
}

func TestStateManagerEscalation(t *testing.T) {
	states, threadID := newTestStates(t)

	err := states.EscalateToHuman(threadID, "cold pizza")
	testutil.MustNoError(t, err, "escalate")

	ctx, err := states.Current(threadID)
	testutil.MustNoError(t, err, "load context")
	if !ctx.NeedsHuman {
		t.Error("escalation must set needs human")
	}
	testutil.AssertEqual(t, ctx.CurrentFlow, models.FlowTypeComplaint, "escalated flow")
	testutil.AssertEqual(t, ctx.FlowData["escalationReason"].(string), "cold pizza", "escalation reason")

	// Ending the flow releases routing but not the human latch.
	testutil.MustNoError(t, states.EndFlow(threadID), "end flow")
	ctx, err = states.Current(threadID)
	testutil.MustNoError(t, err, "load context")
	if !ctx.NeedsHuman {
		t.Error("ending the flow must not release the human latch")
	}

	testutil.MustNoError(t, states.Clear(threadID), "clear")
	ctx, err = states.Current(threadID)
	testutil.MustNoError(t, err, "load context")
	if ctx.NeedsHuman {
		t.Error("clear must release the human latch")
	}
}

func TestEncodeDecodeOrderData(t *testing.T) {
	in := orderData{
		Cart: []models.CartItem{
			{ProductID: "1", Name: "Hawaiian Delight Pizza", Price: "₱389", Quantity: 2, Category: "Pizza"},
		},
		DeliveryAddress: "123 Main St",
	}
	encoded, err := encodeData(in)
	testutil.MustNoError(t, err, "encode")

	var out orderData
	testutil.MustNoError(t, decodeData(encoded, &out), "decode")
	testutil.AssertEqual(t, len(out.Cart), 1, "cart length")
	testutil.AssertEqual(t, out.Cart[0].Quantity, 2, "cart quantity survives roundtrip")
	testutil.AssertEqual(t, out.DeliveryAddress, "123 Main St", "address survives roundtrip")
}
