// Package binder decodes HTTP request bodies into structs.
//
// JSON handles application/json, Form handles
// application/x-www-form-urlencoded with `form` struct tags, and Bind picks
// between them by Content-Type:
//
//	var req struct {
//		Username string `json:"username" form:"username"`
//		Password string `json:"password" form:"password"`
//	}
//	if err := binder.Bind(r, &req); err != nil {
//		http.Error(w, err.Error(), http.StatusBadRequest)
//		return
//	}
package binder
