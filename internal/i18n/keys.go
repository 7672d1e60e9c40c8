package i18n

const (
	Welcome        Key = "welcome"
	ChooseLanguage Key = "choose_language"
	Home           Key = "home"

	SecretKeyTitle   Key = "secret_key_title"
	SecretKeySaved   Key = "secret_key_saved"
	SecretKeyPrompt  Key = "secret_key_prompt"
	SecretKeyInvalid Key = "secret_key_invalid"
	RestoreSuccess   Key = "restore_success"

	BtnSaveKey          Key = "btn_save_key"
	BtnLoadKey          Key = "btn_load_key"
	BtnHide             Key = "btn_hide"
	BtnCheck            Key = "btn_check"
	BtnDeposit          Key = "btn_deposit"
	BtnBuySubscription  Key = "btn_buy_subscription"
	BtnRestore          Key = "btn_restore"
	BtnBack             Key = "btn_back"
	BtnSendText         Key = "btn_send_text"
	BtnUploadTxt        Key = "btn_upload_txt"
	BtnUploadScreenshot Key = "btn_upload_screenshot"
	BtnMore             Key = "btn_more"
	BtnPaid             Key = "btn_paid"
	BtnPayLink          Key = "btn_pay_link"
	BtnChangeCurrency   Key = "btn_change_currency"
	BtnCancel           Key = "btn_cancel"
	BtnDaily            Key = "btn_daily"
	BtnWeekly           Key = "btn_weekly"
	BtnMonthly          Key = "btn_monthly"
	BtnExport           Key = "btn_export"
	BtnNewCheck         Key = "btn_new_check"

	DepositPromptAmount Key = "deposit_prompt_amount"
	InvalidAmount       Key = "invalid_amount"
	AmountRange         Key = "amount_range"
	ChooseCurrency      Key = "choose_currency"
	InvoiceDetails      Key = "invoice_details"
	InvoiceExpired      Key = "invoice_expired"
	DepositConfirmed    Key = "deposit_confirmed"
	DepositCancelled    Key = "deposit_cancelled"
	PaymentPending      Key = "payment_pending"
	PaymentUnknown      Key = "payment_unknown"
	NoActiveInvoice     Key = "no_active_invoice"

	SubscriptionPrompt    Key = "subscription_prompt"
	InsufficientBalance   Key = "insufficient_balance"
	SubscriptionActivated Key = "subscription_activated"
	SubscriptionRequired  Key = "subscription_required"

	CheckPrompt            Key = "check_prompt"
	EnterText              Key = "enter_text"
	UploadTxt              Key = "upload_txt"
	UploadScreenshot       Key = "upload_screenshot"
	MaxNumbers             Key = "max_numbers"
	CheckSummary           Key = "check_summary"
	InvalidInput           Key = "invalid_input"
	RateLimit              Key = "rate_limit"
	RecognitionUnavailable Key = "recognition_unavailable"
	ExportReady            Key = "export_ready"
	NothingToExport        Key = "nothing_to_export"

	UnexpectedInput Key = "unexpected_input"
	GenericError    Key = "generic_error"
	NotAllowed      Key = "not_allowed"
	AdminStats      Key = "admin_stats"
)
