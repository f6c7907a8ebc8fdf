package payment

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqar-dev/aqarhub/internal/config"
	"github.com/aqar-dev/aqarhub/internal/db"
)

// startPostgres spins up a throwaway Postgres container and points the
// shared pool at it. Skips when Docker is not available.
func startPostgres(t *testing.T) {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not reachable: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_PASSWORD=postgres",
			"POSTGRES_DB=aqarhub_test",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })

	host, port, err := net.SplitHostPort(resource.GetHostPort("5432/tcp"))
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://postgres:postgres@%s:%s/aqarhub_test", host, port)
	require.NoError(t, pool.Retry(func() error {
		conn, err := pgxpool.New(context.Background(), dsn)
		if err != nil {
			return err
		}
		defer conn.Close()
		return conn.Ping(context.Background())
	}))

	cfg := &config.Config{DB: config.DBConfig{
		Host: host, Port: port,
		User: "postgres", Password: "postgres", Name: "aqarhub_test",
	}}
	db.Init(cfg)
	t.Cleanup(func() { db.Conn.Close() })
}

func seedUnpaidListing(t *testing.T, ownerID string) string {
	t.Helper()
	ctx := context.Background()

	_, err := db.Conn.Exec(ctx,
		`INSERT INTO users (id, name, email, password, role) VALUES ($1, 'Owner', $2, 'x', 'owner')`,
		ownerID, ownerID+"@test.local")
	require.NoError(t, err)

	var adTypeID int
	require.NoError(t, db.Conn.QueryRow(ctx,
		`SELECT id FROM ad_types WHERE name = 'standard'`).Scan(&adTypeID))

	var listingID string
	require.NoError(t, db.Conn.QueryRow(ctx,
		`INSERT INTO listings (user_id, ad_type_id, title, price) VALUES ($1, $2, 'Race flat', 1000000)
		 RETURNING id::text`, ownerID, adTypeID).Scan(&listingID))
	return listingID
}

func confirmCard(ownerID, listingID, externalID string) *httptest.ResponseRecorder {
	e := echo.New()
	body := fmt.Sprintf(`{"method":"stripe","external_id":"%s"}`, externalID)
	req := httptest.NewRequest(http.MethodPost, "/listings/"+listingID+"/payments/confirm", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", ownerID)
	c.Set("role", "owner")
	c.SetParamNames("id")
	c.SetParamValues(listingID)
	_ = Confirm(c)
	return rec
}

func TestConcurrentConfirmsActivateExactlyOnce(t *testing.T) {
	startPostgres(t)

	ownerID := "11111111-2222-3333-4444-555555555555"
	listingID := seedUnpaidListing(t, ownerID)

	var wg sync.WaitGroup
	recs := make([]*httptest.ResponseRecorder, 2)
	for i := range recs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			recs[i] = confirmCard(ownerID, listingID, fmt.Sprintf("pi_race%d", i))
		}(i)
	}
	wg.Wait()

	codes := []int{recs[0].Code, recs[1].Code}
	assert.ElementsMatch(t, []int{http.StatusCreated, http.StatusConflict}, codes,
		"one confirm wins, the other loses the compare-and-swap")

	ctx := context.Background()

	// The loser's payment row rolled back with its transaction.
	var paymentCount int
	require.NoError(t, db.Conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM payments WHERE listing_id = $1`, listingID).Scan(&paymentCount))
	assert.Equal(t, 1, paymentCount)

	var status string
	require.NoError(t, db.Conn.QueryRow(ctx,
		`SELECT status FROM payments WHERE listing_id = $1`, listingID).Scan(&status))
	assert.Equal(t, StatusCompleted, status)

	var isPaid bool
	var expiry *time.Time
	require.NoError(t, db.Conn.QueryRow(ctx,
		`SELECT is_paid, expiry_date FROM listings WHERE id = $1`, listingID).Scan(&isPaid, &expiry))
	assert.True(t, isPaid)
	require.NotNil(t, expiry)

	// Standard tier runs 30 days; a second activation would have
	// extended this.
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), *expiry, time.Minute)

	// A repeat confirm after settlement is a plain conflict.
	late := confirmCard(ownerID, listingID, "pi_race_late")
	assert.Equal(t, http.StatusConflict, late.Code)

	require.NoError(t, db.Conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM payments WHERE listing_id = $1`, listingID).Scan(&paymentCount))
	assert.Equal(t, 1, paymentCount)
}
