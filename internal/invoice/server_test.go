package invoice

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"invoice-pipeline/internal/docai"
)

var _ = Describe("Server", func() {
	var (
		db        *mockDB
		processor *mockProcessor
		storage   *mockStorage
		service   *Service
		server    *Server
		exportDir string
		auth      BasicAuth
		recorder  *httptest.ResponseRecorder
	)

	BeforeEach(func() {
		db = newMockDB()
		processor = newMockProcessor()
		storage = newMockStorage()
		exportDir = GinkgoT().TempDir()
		auth = BasicAuth{}
		now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
		service = NewServiceWithDeps(db, processor, storage, &fixedIDGenerator{id: "batch-1"}, &fixedTimeSource{now: now})
		recorder = httptest.NewRecorder()
	})

	JustBeforeEach(func() {
		server = NewServerWithMux(service, exportDir, auth, http.NewServeMux())
	})

	Describe("POST /api/batches", func() {
		var makeUpload = func(filenames ...string) *http.Request {
			body := &bytes.Buffer{}
			writer := multipart.NewWriter(body)
			for _, name := range filenames {
				part, err := writer.CreateFormFile("files", name)
				Expect(err).NotTo(HaveOccurred())
				_, err = part.Write([]byte("doc-" + name))
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(writer.Close()).To(Succeed())

			req := httptest.NewRequest("POST", "/api/batches", body)
			req.Header.Set("Content-Type", writer.FormDataContentType())
			return req
		}

		When("uploading documents", func() {
			BeforeEach(func() {
				processor.docs["doc-a.pdf"] = &docai.Document{
					Entities: []docai.Entity{
						{Type: "supplier_name", Text: "acme"},
						{Type: "line_item", Properties: []docai.Property{
							{Type: "line_item/description", Text: "widget"},
							{Type: "line_item/amount", Text: "$10.00"},
						}},
					},
				}
			})

			It("processes the batch and returns it", func() {
				server.ServeHTTP(recorder, makeUpload("a.pdf"))

				Expect(recorder.Code).To(Equal(http.StatusCreated))
				Expect(recorder.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

				var batch Batch
				Expect(json.Unmarshal(recorder.Body.Bytes(), &batch)).To(Succeed())
				Expect(batch.ID).To(Equal("batch-1"))
				Expect(batch.Rows).To(HaveLen(1))
				Expect(batch.Rows[0].VendorName).To(Equal("Acme"))
			})
		})

		When("no files are attached", func() {
			It("responds with a JSON error", func() {
				body := &bytes.Buffer{}
				writer := multipart.NewWriter(body)
				Expect(writer.Close()).To(Succeed())

				req := httptest.NewRequest("POST", "/api/batches", body)
				req.Header.Set("Content-Type", writer.FormDataContentType())
				server.ServeHTTP(recorder, req)

				Expect(recorder.Code).To(Equal(http.StatusBadRequest))

				var resp map[string]string
				Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(Succeed())
				Expect(resp["error"]).To(ContainSubstring("No files"))
			})
		})
	})

	Describe("GET /api/batches", func() {
		It("returns an empty array when there are no batches", func() {
			server.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/batches", nil))

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Body.String()).To(MatchJSON("[]"))
		})

		When("batches exist", func() {
			BeforeEach(func() {
				db.batches["batch-1"] = &Batch{ID: "batch-1"}
			})

			It("lists them", func() {
				server.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/batches", nil))

				var batches []*Batch
				Expect(json.Unmarshal(recorder.Body.Bytes(), &batches)).To(Succeed())
				Expect(batches).To(HaveLen(1))
			})
		})
	})

	Describe("GET /api/batches/{id}", func() {
		When("the batch exists", func() {
			BeforeEach(func() {
				db.batches["batch-1"] = &Batch{ID: "batch-1", FileCount: 2}
			})

			It("returns it", func() {
				server.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/batches/batch-1", nil))

				Expect(recorder.Code).To(Equal(http.StatusOK))
				var batch Batch
				Expect(json.Unmarshal(recorder.Body.Bytes(), &batch)).To(Succeed())
				Expect(batch.FileCount).To(Equal(2))
			})
		})

		When("the batch does not exist", func() {
			It("responds 404", func() {
				server.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/batches/missing", nil))
				Expect(recorder.Code).To(Equal(http.StatusNotFound))
			})
		})
	})

	Describe("GET /api/batches/{id}/rows", func() {
		BeforeEach(func() {
			db.batches["batch-1"] = &Batch{
				ID:   "batch-1",
				Rows: Table{{Description: "Widget", TotalPrice: 10.0}},
			}
		})

		It("returns the consolidated table", func() {
			server.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/batches/batch-1/rows", nil))

			Expect(recorder.Code).To(Equal(http.StatusOK))
			var rows Table
			Expect(json.Unmarshal(recorder.Body.Bytes(), &rows)).To(Succeed())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].Description).To(Equal("Widget"))
		})
	})

	Describe("GET /api/batches/{id}/summary", func() {
		BeforeEach(func() {
			db.batches["batch-1"] = &Batch{
				ID: "batch-1",
				Rows: Table{
					{VendorName: "Acme", TotalPrice: 10.0},
					{VendorName: "Acme", TotalPrice: 30.0},
				},
			}
		})

		It("recomputes and returns the stats", func() {
			server.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/batches/batch-1/summary", nil))

			Expect(recorder.Code).To(Equal(http.StatusOK))
			var stats Stats
			Expect(json.Unmarshal(recorder.Body.Bytes(), &stats)).To(Succeed())
			Expect(stats.TotalAmount).To(Equal(40.0))
			Expect(stats.UniqueVendors).To(Equal(1))
		})
	})

	Describe("GET /api/batches/{id}/export", func() {
		BeforeEach(func() {
			db.batches["batch-1"] = &Batch{
				ID:   "batch-1",
				Rows: Table{{Description: "Widget", TotalPrice: 10.0}},
			}
		})

		It("exports and reports the written path", func() {
			server.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/batches/batch-1/export?format=json", nil))

			Expect(recorder.Code).To(Equal(http.StatusOK))
			var resp map[string]string
			Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["path"]).To(HaveSuffix("batch_batch-1.json"))
			Expect(resp["path"]).To(BeAnExistingFile())
		})

		It("defaults to CSV when no format is given", func() {
			server.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/batches/batch-1/export", nil))

			Expect(recorder.Code).To(Equal(http.StatusOK))
			var resp map[string]string
			Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["path"]).To(HaveSuffix(".csv"))
		})

		It("rejects unsupported formats with 400", func() {
			server.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/batches/batch-1/export?format=XML", nil))

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			var resp map[string]string
			Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["error"]).To(ContainSubstring("unsupported export format"))
		})
	})

	Describe("DELETE /api/batches/{id}", func() {
		BeforeEach(func() {
			db.batches["batch-1"] = &Batch{ID: "batch-1"}
		})

		It("deletes the batch", func() {
			server.ServeHTTP(recorder, httptest.NewRequest("DELETE", "/api/batches/batch-1", nil))

			Expect(recorder.Code).To(Equal(http.StatusNoContent))
			_, err := db.GetBatch("batch-1")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("basic auth", func() {
		BeforeEach(func() {
			auth = BasicAuth{Username: "user", Password: "secret"}
		})

		It("rejects requests without credentials", func() {
			server.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/batches", nil))
			Expect(recorder.Code).To(Equal(http.StatusUnauthorized))
			Expect(recorder.Header().Get("WWW-Authenticate")).To(ContainSubstring("Basic"))
		})

		It("rejects wrong credentials", func() {
			req := httptest.NewRequest("GET", "/api/batches", nil)
			req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("user:wrong")))
			server.ServeHTTP(recorder, req)
			Expect(recorder.Code).To(Equal(http.StatusUnauthorized))
		})

		It("accepts valid credentials", func() {
			req := httptest.NewRequest("GET", "/api/batches", nil)
			req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("user:secret")))
			server.ServeHTTP(recorder, req)
			Expect(recorder.Code).To(Equal(http.StatusOK))
		})
	})
})
