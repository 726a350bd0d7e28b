package redis

import (
	"encoding/json"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/jackleZac/trading-algorithm/internal/domain"
)

func TestDecodeMessages(t *testing.T) {
	payload, err := json.Marshal(domain.TradeIntent{ID: "a", Symbol: "EURUSD", Action: domain.ActionClose})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	msgs := []redis.XMessage{
		{ID: "1-0", Values: map[string]interface{}{"payload": string(payload)}},
		{ID: "2-0", Values: map[string]interface{}{"other": "x"}},
	}
	intents, last, err := decodeMessages(msgs, "0")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(intents) != 1 || intents[0].ID != "a" || intents[0].Action != domain.ActionClose {
		t.Fatalf("unexpected intents %+v", intents)
	}
	if last != "2-0" {
		t.Fatalf("expected resume id 2-0, got %s", last)
	}
}

func TestDecodeMessagesBadPayload(t *testing.T) {
	msgs := []redis.XMessage{{ID: "3-0", Values: map[string]interface{}{"payload": "{"}}}
	if _, last, err := decodeMessages(msgs, "0"); err == nil || last != "3-0" {
		t.Fatalf("expected decode error at 3-0, got %v %s", err, last)
	}
}

func TestDefaultStream(t *testing.T) {
	b := &IntentBus{stream: DefaultStream}
	if b.Stream() != "tradealgo:intents" {
		t.Fatalf("unexpected stream %s", b.Stream())
	}
}
