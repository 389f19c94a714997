// Package apiclient is a typed client for the Me Feed REST API. It covers
// the account endpoints (register, profile, active sessions, email
// verification, password reset) and the user media library.
//
// Every authenticated call is routed through a tokenmgr.Manager, so token
// attachment, expiry recovery and forced logout are handled in one place;
// the client never reads or writes tokens itself.
//
// # Usage
//
//	session, err := tokenmgr.New(tokenmgr.WithBaseURL("https://api.mefeed.app"))
//	if err != nil {
//	    // handle error
//	}
//	client := apiclient.New(session)
//
//	if _, err := session.Login(ctx, email, password); err != nil {
//	    // handle error
//	}
//
//	me, err := client.Me(ctx)
//	list, err := client.ListMedia(ctx, apiclient.ListMediaOptions{Type: "movie"})
//
// # Error Handling
//
// Backend rejections are returned as *APIError carrying the HTTP status and
// the backend's detail message. Session-level failures surface the tokenmgr
// sentinels unchanged (tokenmgr.ErrSessionExpired and friends), so a caller
// can redirect to login on errors.Is(err, tokenmgr.ErrSessionExpired).
package apiclient
