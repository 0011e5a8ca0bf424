package redsys

// merchantParameters is the outbound payload, base64-encoded into the
// Ds_MerchantParameters form field. Field names follow the gateway wire
// format exactly.
type merchantParameters struct {
	Amount             string `json:"DS_MERCHANT_AMOUNT"`
	Order              string `json:"DS_MERCHANT_ORDER"`
	MerchantCode       string `json:"DS_MERCHANT_MERCHANTCODE"`
	Currency           string `json:"DS_MERCHANT_CURRENCY"`
	TransactionType    string `json:"DS_MERCHANT_TRANSACTIONTYPE"`
	Terminal           string `json:"DS_MERCHANT_TERMINAL"`
	MerchantURL        string `json:"DS_MERCHANT_MERCHANTURL"`
	URLOK              string `json:"DS_MERCHANT_URLOK"`
	URLKO              string `json:"DS_MERCHANT_URLKO"`
	ProductDescription string `json:"DS_MERCHANT_PRODUCTDESCRIPTION,omitempty"`
	MerchantName       string `json:"DS_MERCHANT_MERCHANTNAME,omitempty"`
	ConsumerLanguage   string `json:"DS_MERCHANT_CONSUMERLANGUAGE,omitempty"`
}

// notificationParameters is the inbound payload decoded from a gateway
// callback's Ds_MerchantParameters field.
type notificationParameters struct {
	Date              string `json:"Ds_Date"`
	Hour              string `json:"Ds_Hour"`
	SecurePayment     string `json:"Ds_SecurePayment"`
	Amount            string `json:"Ds_Amount"`
	Currency          string `json:"Ds_Currency"`
	Order             string `json:"Ds_Order"`
	MerchantCode      string `json:"Ds_MerchantCode"`
	Terminal          string `json:"Ds_Terminal"`
	Response          string `json:"Ds_Response"`
	AuthorisationCode string `json:"Ds_AuthorisationCode"`
	TransactionID     string `json:"Ds_TransactionId"`
	TransactionType   string `json:"Ds_TransactionType"`
	CardNumber        string `json:"Ds_Card_Number"`
	CardBrand         string `json:"Ds_Card_Brand"`
	CardType          string `json:"Ds_Card_Type"`
	CardCountry       string `json:"Ds_Card_Country"`
	Language          string `json:"Ds_ConsumerLanguage"`
}

// currencyCodes maps ISO 4217 alphabetic codes to the numeric codes the
// gateway expects.
var currencyCodes = map[string]string{
	"EUR": "978",
	"USD": "840",
	"GBP": "826",
}
