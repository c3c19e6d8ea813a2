package integration

import (
	"encoding/csv"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/checho651/bfx-report/test-integration/report-api/helpers"
)

var _ = Describe("Report API", Label("report"), func() {
	var (
		tempDir      string
		remote       *helpers.MockRemote
		serverHelper *helpers.ServerTestHelper
		account      helpers.Credentials
	)

	BeforeEach(func() {
		tempDir = createTempDir("report-api-test-")
		account = helpers.Credentials{APIKey: "fake-key", APISecret: "fake-secret"}

		remote = helpers.NewMockRemoteBuilder().
			WithAccount(account.APIKey, "fake@email.fake", "fake").
			WithLedgers(
				helpers.LedgerEntry{ID: 3, Currency: "USD", Mts: 1700000300000, Amount: -10, Balance: 90, Description: "Trading fee"},
				helpers.LedgerEntry{ID: 2, Currency: "BTC", Mts: 1700000200000, Amount: 0.5, Balance: 1.5, Description: "Deposit"},
				helpers.LedgerEntry{ID: 1, Currency: "USD", Mts: 1700000100000, Amount: 100, Balance: 100, Description: "Deposit"},
			).
			Build()

		configFile := helpers.WriteConfigYAML(tempDir, remote.URL)
		serverHelper = helpers.NewServerTestHelper(ctx, configFile)
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)
	})

	AfterEach(func() {
		Expect(serverHelper.StopServer()).To(Succeed())
		remote.Close()
		cleanupTempDir(tempDir)
	})

	call := func(method string, params any) helpers.Envelope {
		body := map[string]any{"auth": account, "method": method, "id": 7}
		if params != nil {
			body["params"] = params
		}
		resp, err := serverHelper.Post("/get-data", body)
		return helpers.Decode(resp, err, http.StatusOK)
	}

	Context("Authentication", func() {
		It("should accept credentials the remote API accepts", func() {
			resp, err := serverHelper.Post("/check-auth", map[string]any{"auth": account, "id": 1})
			env := helpers.Decode(resp, err, http.StatusOK)
			Expect(helpers.ResultAs[bool](env)).To(BeTrue())
			Expect(string(env.ID)).To(Equal("1"))

			env = call("getEmail", nil)
			Expect(helpers.ResultAs[string](env)).To(Equal("fake@email.fake"))
		})

		It("should reject credentials the remote API rejects", func() {
			resp, err := serverHelper.Post("/check-auth", map[string]any{
				"auth": helpers.Credentials{APIKey: "wrong", APISecret: "wrong"},
				"id":   1,
			})
			env := helpers.Decode(resp, err, http.StatusUnauthorized)
			Expect(env.Error).NotTo(BeNil())
			Expect(env.Error.Code).To(Equal(401))
			Expect(env.Error.Message).To(Equal("Unauthorized"))
			Expect(string(env.ID)).To(Equal("null"))
		})

		It("should only accept known users in offline mode", func() {
			resp, err := serverHelper.Post("/check-auth", map[string]any{"auth": account})
			helpers.Decode(resp, err, http.StatusOK)

			call("disableSyncMode", nil)
			Expect(helpers.ResultAs[bool](call("isSyncModeConfig", nil))).To(BeFalse())

			before := remote.Requests("/v2/auth/r/info/user")

			resp, err = serverHelper.Post("/check-auth", map[string]any{"auth": account})
			helpers.Decode(resp, err, http.StatusOK)

			resp, err = serverHelper.Post("/check-auth", map[string]any{
				"auth": helpers.Credentials{APIKey: "other", APISecret: "other"},
			})
			helpers.Decode(resp, err, http.StatusUnauthorized)

			Expect(remote.Requests("/v2/auth/r/info/user")).To(Equal(before), "offline mode never contacts the remote API")
		})
	})

	Context("Synchronization", func() {
		BeforeEach(func() {
			resp, err := serverHelper.Post("/check-auth", map[string]any{"auth": account})
			helpers.Decode(resp, err, http.StatusOK)
		})

		It("should mirror the ledgers and serve them newest first", func() {
			Expect(serverHelper.RunSync()).To(Succeed())

			rows := helpers.ResultAs[[]map[string]any](call("getLedgers", map[string]any{"limit": 2}))
			Expect(rows).To(HaveLen(2))
			Expect(rows[0]["id"]).To(BeNumerically("==", 3))
			Expect(rows[1]["id"]).To(BeNumerically("==", 2))

			rows = helpers.ResultAs[[]map[string]any](call("getLedgers", map[string]any{"end": 1700000150000}))
			Expect(rows).To(HaveLen(1))
			Expect(rows[0]["description"]).To(Equal("Deposit"))
		})

		It("should serve the public snapshots", func() {
			Expect(serverHelper.RunSync()).To(Succeed())

			symbols := helpers.ResultAs[map[string]any](call("getSymbols", nil))
			Expect(symbols["pairs"]).To(ConsistOf("btcusd", "ethusd"))
			Expect(symbols["currencies"]).To(HaveLen(2))
		})

		It("should report completed progress after a pass", func() {
			Expect(serverHelper.RunSync()).To(Succeed())

			progress := helpers.ResultAs[map[string]any](call("getSyncProgress", nil))
			Expect(progress["isSyncInProgress"]).To(BeFalse())
			Expect(progress["progress"]).To(BeNumerically("==", 100))
			Expect(progress["scopes"]).NotTo(BeEmpty())
		})

		It("should not sync while the scheduler is disabled", func() {
			call("disableScheduler", nil)
			Expect(helpers.ResultAs[bool](call("isSchedulerEnabled", nil))).To(BeFalse())

			before := remote.Requests("/v2/auth/r/ledgers/hist")
			Expect(serverHelper.RunSync()).To(Succeed())
			Expect(remote.Requests("/v2/auth/r/ledgers/hist")).To(Equal(before))
		})
	})

	Context("CSV export", func() {
		BeforeEach(func() {
			resp, err := serverHelper.Post("/check-auth", map[string]any{"auth": account})
			helpers.Decode(resp, err, http.StatusOK)
			Expect(serverHelper.RunSync()).To(Succeed())
		})

		It("should write the stored ledgers to a file", func() {
			resp, err := serverHelper.Post("/get-csv", map[string]any{
				"auth":     account,
				"method":   "getLedgers",
				"userInfo": "fake",
				"id":       3,
			})
			scheduled := helpers.ResultAs[map[string]string](helpers.Decode(resp, err, http.StatusOK))
			Expect(scheduled["fileName"]).To(HavePrefix("fake_ledgers_"))
			Expect(scheduled["fileName"]).To(HaveSuffix(".csv"))

			var job map[string]any
			Eventually(func() any {
				resp, err := serverHelper.Get("/api/export-jobs/" + scheduled["jobId"])
				job = helpers.ResultAs[map[string]any](helpers.Decode(resp, err, http.StatusOK))
				return job["state"]
			}, 10*time.Second, 100*time.Millisecond).Should(Equal("completed"))
			Expect(job["rowCount"]).To(BeNumerically("==", 3))

			location := filepath.Join(helpers.ExportDir(tempDir), scheduled["fileName"])
			Expect(job["location"]).To(Equal(location))

			f, err := os.Open(location)
			Expect(err).NotTo(HaveOccurred())
			defer func() {
				_ = f.Close()
			}()
			records, err := csv.NewReader(f).ReadAll()
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(4))
			Expect(records[0]).To(ContainElement("description"))
			Expect(strings.Join(records[1], ",")).To(ContainSubstring("Trading fee"))

			resp, err = serverHelper.Post("/check-stored-locally", map[string]any{"auth": account})
			Expect(helpers.ResultAs[string](helpers.Decode(resp, err, http.StatusOK))).To(Equal(helpers.ExportDir(tempDir)))
		})

		It("should write one file per request of a multi-export", func() {
			resp, err := serverHelper.Post("/get-multiple-csv", map[string]any{
				"auth":     account,
				"userInfo": "fake",
				"id":       5,
				"params": map[string]any{
					"multiExport": []map[string]any{
						{"method": "getLedgers"},
						{"method": "getMovements", "params": map[string]any{
							"fileNamesMap": [][]string{{"getMovements", "transfers"}},
						}},
					},
				},
			})
			batch := helpers.ResultAs[struct {
				BatchID string `json:"batchId"`
				Jobs    []struct {
					JobID    string `json:"jobId"`
					FileName string `json:"fileName"`
				} `json:"jobs"`
			}](helpers.Decode(resp, err, http.StatusOK))
			Expect(batch.BatchID).NotTo(BeEmpty())
			Expect(batch.Jobs).To(HaveLen(2))
			Expect(batch.Jobs[0].FileName).To(HavePrefix("fake_ledgers_"))
			Expect(batch.Jobs[1].FileName).To(HavePrefix("fake_transfers_"))

			rowCounts := make([]any, 0, len(batch.Jobs))
			for _, scheduled := range batch.Jobs {
				var job map[string]any
				Eventually(func() any {
					resp, err := serverHelper.Get("/api/export-jobs/" + scheduled.JobID)
					job = helpers.ResultAs[map[string]any](helpers.Decode(resp, err, http.StatusOK))
					return job["state"]
				}, 10*time.Second, 100*time.Millisecond).Should(Equal("completed"))
				Expect(job["batchId"]).To(Equal(batch.BatchID))
				Expect(filepath.Join(helpers.ExportDir(tempDir), scheduled.FileName)).To(BeAnExistingFile())
				rowCounts = append(rowCounts, job["rowCount"])
			}
			Expect(rowCounts[0]).To(BeNumerically("==", 3))
			Expect(rowCounts[1]).To(BeNumerically("==", 0))
		})

		It("should reject exports of unknown methods", func() {
			resp, err := serverHelper.Post("/get-csv", map[string]any{
				"auth":   account,
				"method": "getNothing",
				"id":     4,
			})
			env := helpers.Decode(resp, err, http.StatusInternalServerError)
			Expect(env.Error.Code).To(Equal(500))
			Expect(string(env.ID)).To(Equal("4"))
		})
	})
})
