package handlers

import "net/http"

// UploadAuth handles GET /upload-auth: a signature the browser uploader uses
// to push source images straight to the asset host.
func (a *App) UploadAuth(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Uploader.NewUploadAuth())
}
