package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postJSON fires a request from inside a worker goroutine and reports the
// status code. No test assertions here; FailNow must not run off the test
// goroutine.
func postJSON(serverURL, path, token, body string) (int, []byte) {
	req, err := http.NewRequest(http.MethodPost, serverURL+path, bytes.NewBufferString(body))
	if err != nil {
		return 0, nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, raw
}

// TestConcurrentTransfers_Conservation fires 50 concurrent transfers between
// two wallets and verifies every unit of money is accounted for: the sum of
// both balances must equal the sum of the initial deposits.
func TestConcurrentTransfers_Conservation(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	aliceToken := setupUser(t, app, "Alice", "alice@example.com")
	bobToken := setupUser(t, app, "Bob", "bob@example.com")
	deposit(t, app, aliceToken, "1000.00")

	concurrency := 50
	var wg sync.WaitGroup
	var successCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, _ := postJSON(app.server.URL, "/api/v1/wallet/transfer", aliceToken,
				`{"recipient_email":"bob@example.com","amount":"10.00"}`)
			if status == http.StatusCreated {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	// Balance covers all 50 transfers, so every one succeeds.
	require.Equal(t, int64(concurrency), successCount.Load())
	assert.Equal(t, "500.00", getBalance(t, app, aliceToken))
	assert.Equal(t, "500.00", getBalance(t, app, bobToken))
}

// TestConcurrentTransfers_Overspend fires 10 concurrent transfers whose total
// is double the available balance. Serialized balance updates admit exactly
// the transfers the balance covers; the rest fail and nothing goes negative.
func TestConcurrentTransfers_Overspend(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	aliceToken := setupUser(t, app, "Alice", "alice@example.com")
	bobToken := setupUser(t, app, "Bob", "bob@example.com")
	deposit(t, app, aliceToken, "500.00")

	concurrency := 10
	var wg sync.WaitGroup
	var successCount atomic.Int64
	var insufficientCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, _ := postJSON(app.server.URL, "/api/v1/wallet/transfer", aliceToken,
				`{"recipient_email":"bob@example.com","amount":"100.00"}`)
			switch status {
			case http.StatusCreated:
				successCount.Add(1)
			case http.StatusPaymentRequired:
				insufficientCount.Add(1)
			}
		}()
	}
	wg.Wait()

	t.Logf("overspend: %d succeeded, %d rejected", successCount.Load(), insufficientCount.Load())

	assert.Equal(t, int64(5), successCount.Load())
	assert.Equal(t, int64(5), insufficientCount.Load())
	assert.Equal(t, "0.00", getBalance(t, app, aliceToken))
	assert.Equal(t, "500.00", getBalance(t, app, bobToken))
}

// TestConcurrentReversals races 10 reversal attempts against the same deposit.
// Exactly one may win; the guarded status flip and the reversal-exists check
// reject the rest, and the balance is debited once.
func TestConcurrentReversals(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := setupUser(t, app, "Alice", "alice@example.com")
	depositID := deposit(t, app, token, "100.00")["id"].(string)

	concurrency := 10
	var wg sync.WaitGroup
	var successCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, _ := postJSON(app.server.URL, "/api/v1/transactions/"+depositID+"/reverse", token,
				`{"reason":"race"}`)
			if status == http.StatusCreated {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), successCount.Load(), "only one reversal may apply")
	assert.Equal(t, "0.00", getBalance(t, app, token))

	// The original ends reversed, not double-flipped.
	req, _ := http.NewRequest(http.MethodGet, app.server.URL+"/api/v1/transactions/"+depositID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "reversed", body.Data.Status)
}

// TestConcurrentDeposits verifies deposits against one wallet accumulate
// without losing updates.
func TestConcurrentDeposits(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := setupUser(t, app, "Alice", "alice@example.com")

	concurrency := 20
	var wg sync.WaitGroup
	var successCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, _ := postJSON(app.server.URL, "/api/v1/wallet/deposit", token,
				`{"amount":"5.50"}`)
			if status == http.StatusCreated {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(concurrency), successCount.Load())
	assert.Equal(t, fmt.Sprintf("%.2f", 5.50*float64(concurrency)), getBalance(t, app, token))
}
