package main

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

type LoadTestConfig struct {
	TargetURL       string
	ConcurrentUsers int
	Duration        time.Duration
	RequestsPerSec  int
	KeyBits         int
}

// paillierKey is a full keypair, generated client-side: the server only ever
// sees n and g.
type paillierKey struct {
	n, g, nSquared *big.Int
}

func generateKey(bits int) (*paillierKey, error) {
	p, err := crand.Prime(crand.Reader, bits)
	if err != nil {
		return nil, err
	}
	q, err := crand.Prime(crand.Reader, bits)
	if err != nil {
		return nil, err
	}
	for p.Cmp(q) == 0 {
		q, err = crand.Prime(crand.Reader, bits)
		if err != nil {
			return nil, err
		}
	}

	n := new(big.Int).Mul(p, q)
	return &paillierKey{
		n:        n,
		g:        new(big.Int).Add(n, big.NewInt(1)),
		nSquared: new(big.Int).Mul(n, n),
	}, nil
}

// encrypt computes g^m * r^n mod n² for a fresh random r.
func (k *paillierKey) encrypt(m int64) string {
	r, err := crand.Int(crand.Reader, k.n)
	for err == nil && r.Sign() == 0 {
		r, err = crand.Int(crand.Reader, k.n)
	}
	if err != nil {
		log.Fatalf("randomness unavailable: %v", err)
	}

	c := new(big.Int).Exp(k.g, big.NewInt(m), k.nSquared)
	c.Mul(c, new(big.Int).Exp(r, k.n, k.nSquared))
	c.Mod(c, k.nSquared)
	return c.String()
}

type publicKeyWire struct {
	N string `json:"n"`
	G string `json:"g"`
}

type encryptedPayload struct {
	Alpha     string `json:"alpha"`
	Beta      string `json:"beta"`
	Gamma     string `json:"gamma"`
	HeartRate string `json:"heartRate"`
}

type envelope struct {
	SessionID     string           `json:"sessionId"`
	Timestamp     int64            `json:"timestamp"`
	PublicKey     publicKeyWire    `json:"publicKey"`
	EncryptedData encryptedPayload `json:"encryptedData"`
}

type TestResults struct {
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	TotalLatency    time.Duration
	MinLatency      time.Duration
	MaxLatency      time.Duration
	Errors          []string
	mu              sync.RWMutex
}

func (tr *TestResults) AddResult(success bool, latency time.Duration, err error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	tr.TotalRequests++
	tr.TotalLatency += latency

	if tr.MinLatency == 0 || latency < tr.MinLatency {
		tr.MinLatency = latency
	}
	if latency > tr.MaxLatency {
		tr.MaxLatency = latency
	}

	if success {
		tr.SuccessRequests++
	} else {
		tr.FailedRequests++
		if err != nil {
			tr.Errors = append(tr.Errors, err.Error())
		}
	}
}

func (tr *TestResults) GetStats() (float64, float64, time.Duration) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	successRate := float64(tr.SuccessRequests) / float64(tr.TotalRequests) * 100
	avgLatency := tr.TotalLatency / time.Duration(tr.TotalRequests)

	return successRate, float64(tr.TotalRequests), avgLatency
}

// generateEnvelope produces one encrypted sample for the session. Heart rate
// stays in a plausible 55-160 bpm band; the other channels are VR telemetry
// in arbitrary units.
func generateEnvelope(key *paillierKey, sessionID string) envelope {
	return envelope{
		SessionID: sessionID,
		Timestamp: time.Now().UnixMilli(),
		PublicKey: publicKeyWire{N: key.n.String(), G: key.g.String()},
		EncryptedData: encryptedPayload{
			Alpha:     key.encrypt(int64(rand.Intn(1000))),
			Beta:      key.encrypt(int64(rand.Intn(1000))),
			Gamma:     key.encrypt(int64(rand.Intn(1000))),
			HeartRate: key.encrypt(int64(rand.Intn(105) + 55)),
		},
	}
}

func sendRequest(client *http.Client, url string, env envelope) (bool, time.Duration, error) {
	jsonData, err := json.Marshal(env)
	if err != nil {
		return false, 0, err
	}

	start := time.Now()

	req, err := http.NewRequest("POST", url+"/api/v1/samples", bytes.NewBuffer(jsonData))
	if err != nil {
		return false, time.Since(start), err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return false, time.Since(start), err
	}
	defer resp.Body.Close()

	latency := time.Since(start)
	success := resp.StatusCode >= 200 && resp.StatusCode < 300

	if !success {
		return false, latency, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	return true, latency, nil
}

func worker(ctx context.Context, workerID int, config LoadTestConfig, key *paillierKey, results *TestResults, wg *sync.WaitGroup) {
	defer wg.Done()

	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	sessionID := fmt.Sprintf("loadtest_%d_%d", workerID, time.Now().Unix())

	ticker := time.NewTicker(time.Second / time.Duration(config.RequestsPerSec))
	defer ticker.Stop()

	log.Printf("Worker %d started (session %s)", workerID, sessionID)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Worker %d stopped", workerID)
			return
		case <-ticker.C:
			env := generateEnvelope(key, sessionID)
			success, latency, err := sendRequest(client, config.TargetURL, env)
			results.AddResult(success, latency, err)
		}
	}
}

func printProgress(ctx context.Context, results *TestResults, duration time.Duration) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			elapsed := time.Since(start)
			remaining := duration - elapsed

			successRate, totalReqs, avgLatency := results.GetStats()

			fmt.Printf("\n=== Progress Update ===\n")
			fmt.Printf("Elapsed: %v, Remaining: %v\n", elapsed.Round(time.Second), remaining.Round(time.Second))
			fmt.Printf("Total Requests: %.0f\n", totalReqs)
			fmt.Printf("Success Rate: %.2f%%\n", successRate)
			fmt.Printf("Average Latency: %v\n", avgLatency.Round(time.Millisecond))
			fmt.Printf("Requests/sec: %.2f\n", totalReqs/elapsed.Seconds())

			if remaining <= 0 {
				return
			}
		}
	}
}

func testSessionsEndpoint(client *http.Client, baseURL string) error {
	fmt.Println("\n=== Testing Sessions Endpoint ===")

	start := time.Now()
	resp, err := client.Get(baseURL + "/api/v1/sessions")
	if err != nil {
		return fmt.Errorf("sessions request failed: %w", err)
	}
	defer resp.Body.Close()

	latency := time.Since(start)

	if resp.StatusCode != 200 {
		return fmt.Errorf("sessions endpoint returned HTTP %d", resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode sessions response: %w", err)
	}

	fmt.Printf("Session list completed in %v\n", latency.Round(time.Millisecond))
	fmt.Printf("Sessions count: %v\n", result["count"])

	return nil
}

func main() {
	config := LoadTestConfig{
		TargetURL:       getEnv("TARGET_URL", "http://localhost:8080"),
		ConcurrentUsers: getEnvInt("CONCURRENT_USERS", 10),
		Duration:        getEnvDuration("DURATION", "60s"),
		RequestsPerSec:  getEnvInt("REQUESTS_PER_SEC", 5),
		KeyBits:         getEnvInt("KEY_BITS", 512),
	}

	fmt.Printf("=== Load Test Configuration ===\n")
	fmt.Printf("Target URL: %s\n", config.TargetURL)
	fmt.Printf("Concurrent Users: %d\n", config.ConcurrentUsers)
	fmt.Printf("Duration: %v\n", config.Duration)
	fmt.Printf("Requests per second per user: %d\n", config.RequestsPerSec)
	fmt.Printf("Paillier prime size: %d bits\n", config.KeyBits)

	fmt.Println("\nGenerating Paillier keypair...")
	key, err := generateKey(config.KeyBits)
	if err != nil {
		log.Fatalf("Key generation failed: %v", err)
	}

	// Wait for service to be ready
	fmt.Println("\nWaiting for service to be ready...")
	client := &http.Client{Timeout: 5 * time.Second}

	for i := 0; i < 30; i++ {
		resp, err := client.Get(config.TargetURL + "/health")
		if err == nil && resp.StatusCode == 200 {
			resp.Body.Close()
			fmt.Println("Service is ready!")
			break
		}
		if resp != nil {
			resp.Body.Close()
		}

		fmt.Printf("Waiting for service... (%d/30)\n", i+1)
		time.Sleep(2 * time.Second)
	}

	results := &TestResults{}

	ctx, cancel := context.WithTimeout(context.Background(), config.Duration)
	defer cancel()

	go printProgress(ctx, results, config.Duration)

	var wg sync.WaitGroup
	fmt.Printf("\nStarting %d concurrent users...\n", config.ConcurrentUsers)

	for i := 0; i < config.ConcurrentUsers; i++ {
		wg.Add(1)
		go worker(ctx, i+1, config, key, results, &wg)
	}

	wg.Wait()

	fmt.Printf("\n=== Final Results ===\n")
	successRate, totalReqs, avgLatency := results.GetStats()

	fmt.Printf("Total Requests: %.0f\n", totalReqs)
	fmt.Printf("Successful Requests: %d\n", results.SuccessRequests)
	fmt.Printf("Failed Requests: %d\n", results.FailedRequests)
	fmt.Printf("Success Rate: %.2f%%\n", successRate)
	fmt.Printf("Average Latency: %v\n", avgLatency.Round(time.Millisecond))
	fmt.Printf("Min Latency: %v\n", results.MinLatency.Round(time.Millisecond))
	fmt.Printf("Max Latency: %v\n", results.MaxLatency.Round(time.Millisecond))
	fmt.Printf("Throughput: %.2f requests/second\n", totalReqs/config.Duration.Seconds())

	if len(results.Errors) > 0 {
		fmt.Printf("\n=== Errors (showing first 10) ===\n")
		for i, err := range results.Errors {
			if i >= 10 {
				fmt.Printf("... and %d more errors\n", len(results.Errors)-10)
				break
			}
			fmt.Printf("- %s\n", err)
		}
	}

	if err := testSessionsEndpoint(&http.Client{Timeout: 30 * time.Second}, config.TargetURL); err != nil {
		fmt.Printf("Sessions endpoint test failed: %v\n", err)
	}

	fmt.Println("\nLoad test completed!")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	if parsed, err := time.ParseDuration(defaultValue); err == nil {
		return parsed
	}
	return time.Minute
}
