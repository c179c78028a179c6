// Package acceptance holds the end-to-end suite of the web application.
//
// Scenarios live in features/*.feature and drive the application in process
// through app.TestClient. Every run writes a JUnit XML report.
//
//	go test ./internal/acceptance
//	go test ./internal/acceptance -godog.tags=@csrf
//
// Reports go to test-reports/ under the package directory unless
// CSVPAGE_TEST_REPORTS names another directory.
package acceptance
