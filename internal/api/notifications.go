package api

import "net/http"

func (a *API) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	if a.requireAdmin(w, r) == nil {
		return
	}
	notifications, err := a.db.ListNotifications(50)
	if err != nil {
		jsonError(w, "error fetching notifications", http.StatusInternalServerError)
		return
	}
	jsonResp(w, http.StatusOK, notifications)
}

func (a *API) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if a.requireAdmin(w, r) == nil {
		return
	}
	if err := a.db.MarkNotificationRead(r.PathValue("id")); err != nil {
		jsonError(w, "notification not found", http.StatusNotFound)
		return
	}
	jsonResp(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

func (a *API) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	if a.requireAdmin(w, r) == nil {
		return
	}
	if err := a.db.MarkAllNotificationsRead(); err != nil {
		jsonError(w, "error updating notifications", http.StatusInternalServerError)
		return
	}
	jsonResp(w, http.StatusOK, map[string]string{"message": "All notifications marked as read"})
}
